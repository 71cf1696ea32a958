// Dumps the open calls and cursor held in a bolt call store.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/stake-plus/multisig-comms/src/data/callstore"
	"github.com/stake-plus/multisig-comms/src/multisig"
)

func main() {
	path := "multisig-comms.db"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	store, err := callstore.OpenBolt(path)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	pos, ok, err := store.Cursor(ctx)
	if err != nil {
		log.Fatalf("cursor: %v", err)
	}
	if ok {
		log.Printf("cursor: next event %d of block %d", pos.Event, pos.Block)
	} else {
		log.Printf("cursor: not set")
	}

	states, err := store.List(ctx)
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	log.Printf("%d open calls", len(states))
	for _, st := range states {
		fmt.Printf("%s thread=%s proposer=%s\n", st.CallHash, st.Thread, st.Proposer)
		for _, voter := range multisig.SortedVoters(st.Voters) {
			v := st.Voters[voter]
			fmt.Printf("  %s %s %s\n", voter, v.Kind, v.Weight)
		}
	}
}
