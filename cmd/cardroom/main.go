package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/fennwick/cardroom/internal/config"
	"github.com/fennwick/cardroom/internal/logging"
	"github.com/fennwick/cardroom/pkg/entities"
	"github.com/fennwick/cardroom/pkg/repositories/balance"
	"github.com/fennwick/cardroom/pkg/repositories/history"
	"github.com/fennwick/cardroom/pkg/repositories/settings"
	"github.com/fennwick/cardroom/pkg/services/baccarat"
	"github.com/fennwick/cardroom/pkg/services/balancesync"
	"github.com/fennwick/cardroom/pkg/services/blackjack"
	"github.com/fennwick/cardroom/pkg/services/statistics"
)

var cli struct {
	Play PlayCmd `cmd:"" help:"Play a table game at the terminal."`
}

// PlayCmd runs an interactive session at one table.
type PlayCmd struct {
	Game    string `arg:"" enum:"blackjack,baccarat" help:"Table to play: blackjack or baccarat."`
	Profile string `help:"Settings profile to play under." default:"default"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("cardroom"),
		kong.Description("Blackjack and baccarat with reconciled chip balances."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}

// session wires one table to its balance backend and sync controller.
type session struct {
	cfg      *config.Config
	logger   *log.Logger
	settings *entities.Settings
	client   balance.Client
	repo     history.Repository
	stats    *statistics.Session
	reader   *bufio.Scanner
}

func (p *PlayCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel)
	tableSettings := loadSettings(cfg, logger, p.Profile)

	var client balance.Client
	if cfg.EndpointURL != "" {
		client = balance.NewHTTPClient(cfg.EndpointURL, cfg.AuthToken)
		logger.Info("using remote balance endpoint", "url", cfg.EndpointURL)
	} else {
		client = balance.NewMemoryClient(tableSettings.StartingChips)
		logger.Info("no endpoint configured, playing against local ledger")
	}

	repo, err := buildHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	s := &session{
		cfg:      cfg,
		logger:   logger,
		settings: tableSettings,
		client:   client,
		repo:     repo,
		stats:    statistics.NewSession(),
		reader:   bufio.NewScanner(os.Stdin),
	}

	switch p.Game {
	case "baccarat":
		return s.playBaccarat()
	default:
		return s.playBlackjack()
	}
}

// loadSettings resolves the table settings for a profile. Stored
// profiles win over config; a missing profile is seeded from config so
// later sessions pick up edits to the settings file.
func loadSettings(cfg *config.Config, logger *log.Logger, profile string) *entities.Settings {
	ctx := context.Background()
	store, err := settings.NewFileStore(filepath.Join(cfg.DataDir, "settings.json"))
	if err != nil {
		logger.Warn("failed to open settings store, using config defaults", "err", err)
		return cfg.Settings()
	}

	s, err := store.Load(ctx, profile)
	if errors.Is(err, settings.ErrNotFound) {
		s = cfg.Settings()
		if saveErr := store.Save(ctx, profile, s); saveErr != nil {
			logger.Warn("failed to seed settings profile", "profile", profile, "err", saveErr)
		}
		return s
	}
	if err != nil {
		logger.Warn("failed to load settings profile, using config defaults",
			"profile", profile, "err", err)
		return cfg.Settings()
	}
	s.Clamp()
	return s
}

// buildHistory selects the round history backend, optionally wrapped in
// the Elasticsearch archiver.
func buildHistory(cfg *config.Config, logger *log.Logger) (history.Repository, error) {
	var repo history.Repository
	if cfg.StorageType == "sqlite" {
		sqliteRepo, err := history.NewSQLiteRepository(cfg.DataDir + "/cardroom.db")
		if err != nil {
			logger.Warn("failed to open sqlite history, falling back to memory", "err", err)
			repo = history.NewMemoryRepository()
		} else {
			repo = sqliteRepo
		}
	} else {
		repo = history.NewMemoryRepository()
	}

	if cfg.ElasticsearchURL != "" {
		esCfg := history.DefaultElasticsearchConfig()
		esCfg.URL = cfg.ElasticsearchURL
		esRepo, err := history.NewElasticsearchRepository(repo, esCfg)
		if err != nil {
			logger.Warn("failed to configure round archiving", "err", err)
			return repo, nil
		}
		repo = esRepo
	}
	return repo, nil
}

func (s *session) playBlackjack() error {
	ctx := context.Background()
	game := blackjack.NewGame(blackjack.Config{
		MinBet:        s.settings.MinBet,
		MaxBet:        s.settings.MaxBet,
		StartingChips: s.settings.StartingChips,
		History:       s.repo,
		Logger:        s.logger,
	})
	sync := balancesync.NewController(balancesync.Config{
		Client:        s.client,
		Game:          game,
		GameType:      entities.GameTypeBlackjack,
		ServerBalance: s.settings.StartingChips,
		Logger:        s.logger,
	})
	defer sync.Close()
	defer sync.Flush(ctx)

	for {
		fmt.Printf("\nbalance: %d chips (bets %d-%d)\n", game.Balance(), s.settings.MinBet, s.settings.MaxBet)
		line := s.prompt("bet amount (q to quit): ")
		if line == "q" || line == "" {
			s.finish(ctx, entities.GameTypeBlackjack)
			return nil
		}
		amount, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			fmt.Println("enter a number")
			continue
		}
		if err := game.PlaceBet(amount); err != nil {
			fmt.Println(err)
			continue
		}
		if err := game.Deal(); err != nil {
			return err
		}

		for game.Phase() == blackjack.PhasePlayerTurn {
			s.showTable(game, false)
			action := s.prompt(s.actionPrompt(game))
			var actErr error
			switch action {
			case "h":
				actErr = game.Hit()
			case "s":
				actErr = game.Stand()
			case "d":
				actErr = game.DoubleDown()
			case "p":
				actErr = game.Split()
			default:
				fmt.Println("unknown action")
				continue
			}
			if actErr != nil {
				fmt.Println(actErr)
			}
		}

		if game.Phase() == blackjack.PhaseDealerTurn {
			time.Sleep(s.settings.DealerSpeed)
			if err := game.PlayDealerTurn(); err != nil {
				return err
			}
		}

		s.showTable(game, true)
		roundID := game.RoundID()
		outcomes, err := game.SettleRound(ctx)
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			fmt.Printf("%s: %+d chips (you %d, dealer %d)\n", o.Result, o.Profit, o.PlayerValue, o.DealerValue)
		}
		s.stats.RecordBlackjack(outcomes)

		if err := sync.RoundCompleted(ctx, balancesync.SummarizeBlackjack(roundID, outcomes)); err != nil {
			fmt.Printf("(balance sync: %v)\n", err)
		}
	}
}

func (s *session) playBaccarat() error {
	ctx := context.Background()
	game := baccarat.NewGame(baccarat.Config{
		MinBet:        s.settings.MinBet,
		MaxBet:        s.settings.MaxBet,
		StartingChips: s.settings.StartingChips,
		History:       s.repo,
		Logger:        s.logger,
	})
	sync := balancesync.NewController(balancesync.Config{
		Client:        s.client,
		Game:          game,
		GameType:      entities.GameTypeBaccarat,
		ServerBalance: s.settings.StartingChips,
		Logger:        s.logger,
	})
	defer sync.Close()
	defer sync.Flush(ctx)

	fmt.Println("bet types: player, banker, tie, ppair, bpair")
	for {
		fmt.Printf("\nbalance: %d chips, staked %d\n", game.Balance(), game.TotalStake())
		line := s.prompt("bet as \"<type> <amount>\", empty line to deal, q to quit: ")
		if line == "q" {
			s.finish(ctx, entities.GameTypeBaccarat)
			return nil
		}
		if line != "" {
			betType, amount, err := parseBaccaratBet(line)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if err := game.PlaceBet(betType, amount); err != nil {
				fmt.Println(err)
			}
			continue
		}

		time.Sleep(s.settings.DealerSpeed)
		outcome, err := game.Deal(ctx)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Printf("player %v = %d, banker %v = %d: %s wins\n",
			outcome.PlayerCards, outcome.PlayerValue,
			outcome.BankerCards, outcome.BankerValue,
			outcome.Winner)
		for _, r := range outcome.BetResults {
			fmt.Printf("  %s %d: %+d\n", r.Type, r.Amount, r.Profit)
		}
		s.stats.RecordBaccarat(outcome)

		if err := sync.RoundCompleted(ctx, balancesync.SummarizeBaccarat(outcome)); err != nil {
			fmt.Printf("(balance sync: %v)\n", err)
		}
	}
}

func parseBaccaratBet(line string) (baccarat.BetType, int64, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("expected \"<type> <amount>\"")
	}
	var betType baccarat.BetType
	switch fields[0] {
	case "player":
		betType = baccarat.BetPlayer
	case "banker":
		betType = baccarat.BetBanker
	case "tie":
		betType = baccarat.BetTie
	case "ppair":
		betType = baccarat.BetPlayerPair
	case "bpair":
		betType = baccarat.BetBankerPair
	default:
		return "", 0, fmt.Errorf("unknown bet type %q", fields[0])
	}
	amount, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("bad amount %q", fields[1])
	}
	return betType, amount, nil
}

func (s *session) actionPrompt(game *blackjack.Game) string {
	prompt := "[h]it [s]tand"
	if game.CanDoubleDown() {
		prompt += " [d]ouble"
	}
	if game.CanSplit() {
		prompt += " s[p]lit"
	}
	return prompt + ": "
}

func (s *session) showTable(game *blackjack.Game, revealDealer bool) {
	dealer := game.Dealer()
	if dealer == nil {
		return
	}
	if revealDealer {
		fmt.Printf("dealer: %v = %d\n", dealer.Cards, dealer.Value().Value)
	} else if len(dealer.Cards) > 0 {
		fmt.Printf("dealer: [%s, ?]\n", dealer.Cards[0])
	}
	for i, hand := range game.Hands() {
		marker := " "
		if i == game.ActiveHand() && game.Phase() == blackjack.PhasePlayerTurn {
			marker = "*"
		}
		fmt.Printf("%s hand %d: %v = %d (bet %d)\n", marker, i+1, hand.Cards, hand.Value().Value, hand.Bet)
	}
}

func (s *session) prompt(msg string) string {
	fmt.Print(msg)
	if !s.reader.Scan() {
		return "q"
	}
	return strings.TrimSpace(s.reader.Text())
}

func (s *session) printStats() {
	fmt.Printf("\nsession: %d games, %d won, %d lost, %d pushed (%.1f%% win rate), net %+d, biggest win %d\n",
		s.stats.GamesPlayed, s.stats.Wins, s.stats.Losses, s.stats.Pushes,
		s.stats.WinRate(), s.stats.NetProfit, s.stats.BiggestWin)
}

// finish prints the session summary and the most recent rounds on
// record for the table.
func (s *session) finish(ctx context.Context, gameType entities.GameType) {
	s.printStats()
	rounds, err := s.repo.RecentRounds(ctx, gameType, 5)
	if err != nil || len(rounds) == 0 {
		return
	}
	fmt.Println("recent rounds:")
	for _, r := range rounds {
		fmt.Printf("  %s  %-5s %+d (you %d, house %d)\n",
			r.CompletedAt.Format("15:04:05"), r.Outcome, r.NetProfit, r.PlayerScore, r.HouseScore)
	}
}
