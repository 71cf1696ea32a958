package multisig

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/multisig-comms/src/actions/core"
	sharedconfig "github.com/stake-plus/multisig-comms/src/config"
	shareddata "github.com/stake-plus/multisig-comms/src/data"
	shareddiscord "github.com/stake-plus/multisig-comms/src/discord"
	"github.com/stake-plus/multisig-comms/src/multisig"
	polkadot "github.com/stake-plus/multisig-comms/src/polkadot-go"
	"github.com/stake-plus/multisig-comms/src/webclient"
)

var _ core.Module = (*Module)(nil)

// Store is the call store the module reconciles into.
type Store interface {
	multisig.Store
	multisig.CursorStore
}

// Module follows the chain and mirrors the configured core's multisig calls
// into Discord forum threads.
type Module struct {
	config  *sharedconfig.MultisigConfig
	store   Store
	session *discordgo.Session

	client  *polkadot.Client
	watcher *multisig.Watcher
	closers []func() error

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewModule(cfg *sharedconfig.MultisigConfig, store Store) (*Module, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	session.Client = webclient.NewDefault(30 * time.Second)

	module := &Module{
		config:  cfg,
		store:   store,
		session: session,
	}
	module.initHandlers()
	return module, nil
}

// Name implements actions.Module.
func (m *Module) Name() string { return "multisig" }

func (m *Module) initHandlers() {
	m.session.AddHandler(m.onReady)
	m.session.AddHandler(m.onInteractionCreate)
}

func (m *Module) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("multisig: Discord session ready as %s", s.State.User.Username)
	if m.config.GuildID == "" {
		log.Printf("multisig: guild_id not set, /%s command not registered", shareddiscord.CommandCalls)
		return
	}
	if err := shareddiscord.RegisterSlashCommands(s, s.State.User.ID, m.config.GuildID, shareddiscord.CommandCalls); err != nil {
		log.Printf("multisig: failed to register slash commands: %v", err)
	}
}

func (m *Module) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	cmd := i.ApplicationCommandData()
	if cmd.Name != shareddiscord.CommandCalls {
		return
	}

	var data *discordgo.InteractionResponseData
	if !shareddiscord.HasRole(s, i, m.config.RoleID) {
		data = &discordgo.InteractionResponseData{
			Content: "You do not have permission to use this command.",
			Flags:   discordgo.MessageFlagsEphemeral,
		}
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		states, err := m.store.List(ctx)
		if err != nil {
			log.Printf("multisig: /%s list failed: %v", shareddiscord.CommandCalls, err)
			data = &discordgo.InteractionResponseData{
				Content: "Could not read open calls, try again later.",
				Flags:   discordgo.MessageFlagsEphemeral,
			}
		} else {
			data = shareddiscord.BuildCallsResponse(shareddiscord.FilterCalls(states, shareddiscord.HashOption(cmd)))
		}
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}); err != nil {
		log.Printf("multisig: respond to /%s: %v", shareddiscord.CommandCalls, err)
	}
}

func (m *Module) Start(ctx context.Context) error {
	if err := m.start(ctx); err != nil {
		m.Stop(ctx)
		return err
	}
	return nil
}

func (m *Module) start(ctx context.Context) error {
	client, err := polkadot.NewClient(m.config.RPCURL)
	if err != nil {
		return fmt.Errorf("multisig: connect %s: %w", m.config.RPCURL, err)
	}
	m.client = client
	m.closers = append(m.closers, client.Close)
	if m.config.SS58Prefix != 0 {
		client.SetSS58Prefix(m.config.SS58Prefix)
	}

	m.checkCore()

	if err := m.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	m.closers = append(m.closers, m.session.Close)

	var sink multisig.Sink
	if m.config.RedisURL != "" {
		rdb, err := shareddata.ConnectRedis(m.config.RedisURL)
		if err != nil {
			return err
		}
		m.closers = append(m.closers, rdb.Close)
		sink = shareddata.NewStreamSink(rdb, m.config.StreamMaxLen)
		log.Printf("multisig: publishing results to redis stream")
	}

	notifier := multisig.RetryNotifier{
		Next:     shareddiscord.NewNotifier(m.session, m.config.ChannelID),
		Attempts: m.config.NotifyAttempts,
		Delay:    m.config.NotifyDelay,
	}
	reconciler := multisig.NewReconciler(m.store, notifier, multisig.Options{
		DisplayScale: m.config.DisplayScale,
		VoteURL:      m.voteURL,
	})
	m.watcher = &multisig.Watcher{
		Source:      &chainSource{client: client, pallet: m.config.Pallet},
		Filter:      multisig.Filter{Pallet: m.config.Pallet, CoreID: m.config.CoreID},
		Reconciler:  reconciler,
		Cursor:      m.store,
		Sink:        sink,
		MaxBackfill: m.config.MaxBackfill,
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(runCtx)
	}()

	log.Printf("multisig: watching %s core %d on %s", m.config.Pallet, m.config.CoreID, m.config.RPCURL)
	return nil
}

// run restarts the watcher with backoff whenever the subscription drops.
func (m *Module) run(ctx context.Context) {
	backoff := webclient.Backoff{Initial: 2 * time.Second, Max: time.Minute}
	for {
		started := time.Now()
		err := m.watcher.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > 5*time.Minute {
			backoff.Reset()
		}
		delay := backoff.Next()
		log.Printf("multisig: watcher stopped: %v (resubscribing in %v)", err, delay)
		if webclient.Sleep(ctx, delay) != nil {
			return
		}
	}
}

func (m *Module) checkCore() {
	exists, err := m.client.MapEntryExists(m.config.Pallet, "CoreStorage", m.config.CoreID)
	switch {
	case err != nil:
		log.Printf("multisig: could not verify core %d: %v", m.config.CoreID, err)
	case !exists:
		log.Printf("multisig: WARNING core %d not found in %s.CoreStorage", m.config.CoreID, m.config.Pallet)
	}
}

func (m *Module) voteURL(hash multisig.CallHash) string {
	rt, err := m.client.LatestRuntime()
	if err != nil {
		log.Printf("multisig: vote link for %s: %v", hash, err)
		return ""
	}
	u, err := VoteURL(m.config.AppsURL, m.config.RPCURL, m.config.Pallet, m.config.CoreID, rt, hash)
	if err != nil {
		log.Printf("multisig: vote link for %s: %v", hash, err)
		return ""
	}
	return u
}

func (m *Module) Stop(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil {
			log.Printf("multisig: shutdown: %v", err)
		}
	}
	m.closers = nil
}
