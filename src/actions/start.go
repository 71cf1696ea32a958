package actions

import (
	"context"
	"fmt"
	"log"

	"github.com/stake-plus/multisig-comms/src/actions/core"
	multisigmodule "github.com/stake-plus/multisig-comms/src/actions/multisig"
	statusapimodule "github.com/stake-plus/multisig-comms/src/actions/statusapi"
	sharedconfig "github.com/stake-plus/multisig-comms/src/config"
	"github.com/stake-plus/multisig-comms/src/data/callstore"
	"gorm.io/gorm"
)

// StartAll wires up enabled action modules and starts the manager.
// db may be nil when no MySQL DSN is configured.
func StartAll(ctx context.Context, db *gorm.DB) (*Manager, error) {
	mgr := NewManager()

	multisigCfg, err := sharedconfig.LoadMultisigConfig(db)
	if err != nil {
		return nil, err
	}
	if multisigCfg.Store == "mysql" && db == nil {
		return nil, fmt.Errorf("actions: multisig_store is mysql but MYSQL_DSN is not set")
	}

	// The store is shared by every module, so it is opened once and closed last.
	backend, err := callstore.Open(multisigCfg.Store, multisigCfg.StorePath, db)
	if err != nil {
		return nil, fmt.Errorf("actions: open call store: %w", err)
	}
	log.Printf("actions: call store %s ready", multisigCfg.Store)
	if err := mgr.Add(core.Closer("callstore", backend)); err != nil {
		backend.Close()
		return nil, err
	}

	mod, err := multisigmodule.NewModule(&multisigCfg, backend)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("actions: init multisig module: %w", err)
	}
	if err := mgr.Add(mod); err != nil {
		backend.Close()
		return nil, fmt.Errorf("actions: add multisig module: %w", err)
	}

	apiCfg := sharedconfig.LoadStatusAPIConfig(db)
	if apiCfg.Enabled {
		if err := mgr.Add(statusapimodule.NewModule(&apiCfg, multisigCfg.GuildID, multisigCfg.DisplayScale, backend)); err != nil {
			backend.Close()
			return nil, fmt.Errorf("actions: add status api module: %w", err)
		}
	} else {
		log.Printf("actions: status api disabled via configuration")
	}

	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}

	return mgr, nil
}
