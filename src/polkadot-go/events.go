package polkadot

import (
	"fmt"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/registry/parser"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// EventRecord is one entry of System.Events.
type EventRecord struct {
	Index  int
	Phase  string
	Pallet string
	Name   string
	Fields registry.DecodedFields
}

// Field returns the named argument of the event.
func (e EventRecord) Field(name string) (any, bool) {
	return Lookup(e.Fields, name)
}

var eventParser = parser.NewEventParser()

// DecodeEvents decodes the raw System.Events storage value.
func (rt *Runtime) DecodeEvents(raw []byte) ([]EventRecord, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	data := types.StorageDataRaw(raw)
	events, err := eventParser.ParseEvents(rt.Events, &data)
	if err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	records := make([]EventRecord, 0, len(events))
	for i, ev := range events {
		pallet, name, ok := strings.Cut(ev.Name, ".")
		if !ok {
			return nil, fmt.Errorf("decode events: record %d has malformed name %q", i, ev.Name)
		}
		records = append(records, EventRecord{
			Index:  i,
			Phase:  phaseName(ev.Phase),
			Pallet: pallet,
			Name:   name,
			Fields: ev.Fields,
		})
	}
	return records, nil
}

func phaseName(p *types.Phase) string {
	switch {
	case p == nil:
		return ""
	case p.IsApplyExtrinsic:
		return "ApplyExtrinsic"
	case p.IsFinalization:
		return "Finalization"
	case p.IsInitialization:
		return "Initialization"
	}
	return ""
}
