package config

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultRPCURL  = "wss://invarch-tinkernet.api.onfinality.io:443/public-ws"
	DefaultAppsURL = "https://polkadot.js.org/apps/"
)

// MultisigConfig holds the chain watcher configuration
type MultisigConfig struct {
	Base
	RPCURL         string
	CoreID         uint32
	Pallet         string
	DisplayScale   *big.Int
	ChannelID      string
	RoleID         string
	Store          string
	StorePath      string
	SS58Prefix     uint16
	MaxBackfill    uint64
	NotifyAttempts int
	NotifyDelay    time.Duration
	AppsURL        string
	RedisURL       string
	StreamMaxLen   int64
}

// StatusAPIConfig holds the read-only HTTP API configuration
type StatusAPIConfig struct {
	Listen    string
	JWTSecret string
	Enabled   bool
}

// LoadMultisigConfig loads the watcher configuration, rejecting malformed values.
func LoadMultisigConfig(db *gorm.DB) (MultisigConfig, error) {
	cfg := MultisigConfig{
		Base:      LoadBase(db),
		RPCURL:    GetSetting("multisig_rpc_url", "RPC_URL", DefaultRPCURL),
		Pallet:    GetSetting("multisig_pallet", "MULTISIG_PALLET", "INV4"),
		ChannelID: GetSetting("multisig_channel_id", "MULTISIG_CHANNEL_ID", ""),
		RoleID:    GetSetting("multisig_role_id", "MULTISIG_ROLE_ID", ""),
		Store:     strings.ToLower(GetSetting("multisig_store", "MULTISIG_STORE", "bolt")),
		StorePath: GetSetting("multisig_store_path", "MULTISIG_STORE_PATH", "multisig-comms.db"),
		AppsURL:   GetSetting("multisig_apps_url", "APPS_URL", DefaultAppsURL),
		RedisURL:  GetSetting("redis_url", "REDIS_URL", ""),
	}

	var err error
	if cfg.CoreID, err = parseUint32("multisig_core_id", GetSetting("multisig_core_id", "CORE_ID", "0")); err != nil {
		return cfg, err
	}

	scale := GetSetting("multisig_display_scale", "DISPLAY_SCALE", "1000000")
	cfg.DisplayScale, _ = new(big.Int).SetString(scale, 10)
	if cfg.DisplayScale == nil || cfg.DisplayScale.Sign() <= 0 {
		return cfg, fmt.Errorf("config: multisig_display_scale %q must be a positive integer", scale)
	}

	prefix, err := strconv.ParseUint(GetSetting("multisig_ss58_prefix", "SS58_PREFIX", "0"), 10, 14)
	if err != nil {
		return cfg, fmt.Errorf("config: multisig_ss58_prefix: %w", err)
	}
	cfg.SS58Prefix = uint16(prefix)

	if cfg.MaxBackfill, err = strconv.ParseUint(GetSetting("multisig_max_backfill", "MAX_BACKFILL_BLOCKS", "600"), 10, 64); err != nil {
		return cfg, fmt.Errorf("config: multisig_max_backfill: %w", err)
	}

	attempts, err := strconv.Atoi(GetSetting("multisig_notify_attempts", "NOTIFY_ATTEMPTS", "3"))
	if err != nil || attempts < 1 {
		return cfg, fmt.Errorf("config: multisig_notify_attempts must be at least 1")
	}
	cfg.NotifyAttempts = attempts

	if cfg.NotifyDelay, err = time.ParseDuration(GetSetting("multisig_notify_delay", "NOTIFY_DELAY", "2s")); err != nil {
		return cfg, fmt.Errorf("config: multisig_notify_delay: %w", err)
	}

	if cfg.StreamMaxLen, err = strconv.ParseInt(GetSetting("multisig_stream_maxlen", "STREAM_MAXLEN", "10000"), 10, 64); err != nil {
		return cfg, fmt.Errorf("config: multisig_stream_maxlen: %w", err)
	}

	switch cfg.Store {
	case "bolt", "mysql", "memory":
	default:
		return cfg, fmt.Errorf("config: multisig_store %q must be bolt, mysql or memory", cfg.Store)
	}
	if cfg.Token == "" {
		return cfg, fmt.Errorf("config: discord_token is required")
	}
	if cfg.ChannelID == "" {
		return cfg, fmt.Errorf("config: multisig_channel_id is required")
	}
	return cfg, nil
}

// LoadStatusAPIConfig loads the status API configuration; an empty listen address disables it.
func LoadStatusAPIConfig(db *gorm.DB) StatusAPIConfig {
	listen := GetSetting("api_listen", "API_LISTEN", "")
	return StatusAPIConfig{
		Listen:    listen,
		JWTSecret: GetSetting("api_jwt_secret", "API_JWT_SECRET", ""),
		Enabled:   listen != "",
	}
}

func parseUint32(name, raw string) (uint32, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return uint32(v), nil
}
