package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	sharedconfig "github.com/stake-plus/multisig-comms/src/config"
	polkadot "github.com/stake-plus/multisig-comms/src/polkadot-go"
)

var (
	rpcFlag     = flag.String("rpc", sharedconfig.DefaultRPCURL, "Node websocket endpoint")
	palletFlag  = flag.String("pallet", "INV4", "Pallet emitting the multisig events")
	coreFlag    = flag.Uint("core", 0, "Core id to look up in CoreStorage")
	blocksFlag  = flag.Uint64("blocks", 20, "Number of finalized blocks to scan back from head")
	fromFlag    = flag.Uint64("from", 0, "First block to scan (overrides -blocks)")
	timeoutFlag = flag.Duration("timeout", 2*time.Minute, "Overall timeout")
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	client, err := polkadot.NewClient(*rpcFlag)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer client.Close()

	head, err := client.Head(ctx)
	if err != nil {
		log.Fatalf("head: %v", err)
	}
	rt, err := client.LatestRuntime()
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}
	fmt.Printf("finalized head %d, spec %d, ss58 prefix %d\n", head, rt.SpecVersion, rt.SS58Prefix)
	if !rt.HasPallet(*palletFlag) {
		log.Fatalf("runtime has no %s pallet", *palletFlag)
	}

	exists, err := client.MapEntryExists(*palletFlag, "CoreStorage", uint32(*coreFlag))
	switch {
	case err != nil:
		fmt.Printf("core %d ❌ %v\n", *coreFlag, err)
	case exists:
		fmt.Printf("core %d ✅ found\n", *coreFlag)
	default:
		fmt.Printf("core %d ❌ not in %s.CoreStorage\n", *coreFlag, *palletFlag)
	}

	from := *fromFlag
	if from == 0 {
		from = head - min(head, *blocksFlag)
	}
	matched := 0
	for n := from; n <= head; n++ {
		if ctx.Err() != nil {
			log.Fatalf("scan: %v", ctx.Err())
		}
		block, err := client.EventsAt(n)
		if err != nil {
			fmt.Printf("block %d ❌ %v\n", n, err)
			continue
		}
		for _, ev := range block.Events {
			if ev.Pallet != *palletFlag {
				continue
			}
			matched++
			fmt.Printf("block %d #%d %s.%s %s\n", n, ev.Index, ev.Pallet, ev.Name, describeFields(block.Runtime, ev.Fields))
		}
	}
	fmt.Printf("scanned %d blocks, %d %s events\n", head-from+1, matched, *palletFlag)
}

func describeFields(rt *polkadot.Runtime, fields registry.DecodedFields) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v := f.Value
		if raw, ok := v.(polkadot.OpaqueCall); ok && rt != nil {
			if call, err := rt.DecodeCall(raw); err == nil {
				v = call
			}
		}
		parts = append(parts, polkadot.FieldName(f.Name)+": "+polkadot.Describe(v))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
