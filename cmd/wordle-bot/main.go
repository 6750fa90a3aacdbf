package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/Wordle-KakaoTalk-bot/internal/adapter/wordlepresenter"
	appcfg "github.com/park285/Wordle-KakaoTalk-bot/internal/config"
	"github.com/park285/Wordle-KakaoTalk-bot/internal/irisfast"
	"github.com/park285/Wordle-KakaoTalk-bot/internal/leaderboard"
	"github.com/park285/Wordle-KakaoTalk-bot/internal/msgcat"
	"github.com/park285/Wordle-KakaoTalk-bot/internal/notify"
	"github.com/park285/Wordle-KakaoTalk-bot/internal/obslog"
	svcwordle "github.com/park285/Wordle-KakaoTalk-bot/internal/service/wordle"
	corewordle "github.com/park285/Wordle-KakaoTalk-bot/internal/wordle"

	"github.com/park285/Wordle-KakaoTalk-bot/internal/domain"
)

const handleTimeout = 15 * time.Second

type bot struct {
	cfg    *appcfg.AppConfig
	svc    *svcwordle.Service
	engine *leaderboard.Engine
	views  *leaderboard.ViewStore
	egress irisfast.Egress
	logger *zap.Logger
}

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("timezone error", zap.String("tz", cfg.Timezone), zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db open error", zap.Error(err))
	}
	defer db.Close()
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.PingContext(initCtx); err != nil {
		cancelInit()
		logger.Fatal("db ping error", zap.Error(err))
	}
	if err := svcwordle.EnsureSchema(initCtx, db); err != nil {
		cancelInit()
		logger.Fatal("schema error", zap.Error(err))
	}
	cancelInit()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis url error", zap.Error(err))
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	cat, err := msgcat.New(cfg.MsgOverrideDir)
	if err != nil {
		logger.Fatal("message catalog error", zap.Error(err))
	}

	headers := func() map[string]string {
		h := map[string]string{}
		if cfg.XUserID != "" {
			h["X-User-Id"] = cfg.XUserID
		}
		if cfg.XUserEmail != "" {
			h["X-User-Email"] = cfg.XUserEmail
		}
		if cfg.XSessionID != "" {
			h["X-Session-Id"] = cfg.XSessionID
		}
		return h
	}

	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(headers))
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5, time.Second)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})

	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 10*time.Second)
	if irisCfg, err := client.GetConfig(probeCtx); err != nil {
		logger.Warn("iris probe failed", zap.Error(err))
	} else {
		logger.Info("iris_ready", zap.String("bot", irisCfg.BotName), zap.String("version", irisCfg.Version))
	}
	cancelProbe()

	repo := svcwordle.NewRepository(db)
	b := &bot{
		cfg:    cfg,
		svc:    svcwordle.NewService(repo, corewordle.NewRand(), loc, logger),
		engine: leaderboard.NewEngine(repo, loc),
		views:  leaderboard.NewViewStore(rdb, cfg.ViewTTL),
		egress: irisfast.NewEgress(cfg.EgressMode, cfg.EgressDryRun, client, ws, logger),
		logger: logger,
	}
	notifier := notify.NewIrisNotifier(b.egress, cat, corewordle.NewRand(), logger)

	ws.OnMessage(func(msg *irisfast.Message) {
		if msg == nil || strings.TrimSpace(msg.Msg) == "" {
			return
		}
		if len(cfg.AllowedRooms) > 0 && !roomAllowed(cfg.AllowedRooms, msg.Room) {
			return
		}
		// Each message gets its own goroutine so the WS read loop never blocks.
		go b.handleMessage(notifier, msg)
	})

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		cancel()
		logger.Fatal("ws connect error", zap.Error(err))
	}
	cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	_ = ws.Close(context.Background())
}

func (b *bot) handleMessage(notifier notify.Notifier, msg *irisfast.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	room, err := b.svc.EnsureRoom(ctx, msg.Room)
	if err != nil {
		b.logger.Error("room load failed", zap.String("room", msg.Room), zap.Error(err))
		return
	}

	// Submissions are only collected in the room's designated wordle room.
	if room.WordleRoomID == msg.Room {
		out, err := b.svc.Ingest(ctx, svcwordle.InboundResult{
			RoomID:      msg.Room,
			UserID:      userIDFromMessage(msg),
			UserName:    senderName(msg),
			AvatarURL:   avatarURL(msg),
			DisplayName: senderName(msg),
			Text:        msg.Msg,
			PostedAt:    postedAt(msg),
		})
		if err != nil {
			b.logger.Error("ingest failed", zap.String("room", msg.Room), zap.Error(err))
			return
		}
		if out != nil {
			if err := notifier.SubmissionResult(ctx, msg.Room, senderName(msg), out); err != nil {
				b.logger.Error("notify failed", zap.String("room", msg.Room), zap.Error(err))
			}
			return
		}
	}

	prefix := room.Prefix
	if prefix == "" {
		prefix = b.cfg.BotPrefix
	}
	text := strings.TrimSpace(msg.Msg)
	if !strings.HasPrefix(text, prefix) {
		return
	}
	b.handleCommand(ctx, msg, room, strings.TrimSpace(strings.TrimPrefix(text, prefix)))
}

func (b *bot) handleCommand(ctx context.Context, msg *irisfast.Message, room *domain.Room, raw string) {
	formatter := wordlepresenter.NewFormatter(prefixProvider{prefix: room.Prefix})
	if raw == "" {
		b.send(ctx, msg.Room, formatter.Help())
		return
	}

	parts := strings.Fields(raw)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	userID := userIDFromMessage(msg)

	switch cmd {
	case "리더보드", "leaderboard":
		b.handleLeaderboard(ctx, msg, formatter, args, leaderboard.Scope{
			FilterRoomID:  msg.Room,
			DisplayRoomID: msg.Room,
		})
	case "전체리더보드", "gleaderboard":
		b.handleLeaderboard(ctx, msg, formatter, args, leaderboard.Scope{
			DisplayRoomID: msg.Room,
		})
	case "통계", "stats":
		stats, err := b.svc.Stats(ctx, userID)
		if err != nil {
			b.fail(ctx, msg.Room, "stats", err)
			return
		}
		b.send(ctx, msg.Room, formatter.Stats(senderName(msg), stats))
	case "조회", "lookup":
		if len(args) == 0 {
			b.send(ctx, msg.Room, formatter.BadLookup())
			return
		}
		sub, err := b.svc.Lookup(ctx, userID, strings.Join(args, " "))
		if errors.Is(err, svcwordle.ErrBadLookup) {
			b.send(ctx, msg.Room, formatter.BadLookup())
			return
		}
		if err != nil {
			b.fail(ctx, msg.Room, "lookup", err)
			return
		}
		b.send(ctx, msg.Room, formatter.Lookup(senderName(msg), sub))
	case "재검토", "review":
		quoted := strings.TrimSpace(strings.TrimPrefix(raw, parts[0]))
		cand, verdict, err := b.svc.Review(quoted)
		if errors.Is(err, svcwordle.ErrNotSubmission) {
			b.send(ctx, msg.Room, formatter.ReviewNotSubmission())
			return
		}
		if err != nil {
			b.send(ctx, msg.Room, formatter.ReviewMismatch())
			return
		}
		b.send(ctx, msg.Room, formatter.ReviewResult(cand, verdict))
	case "갱신", "update":
		user := &domain.User{ID: userID, Name: senderName(msg), AvatarURL: avatarURL(msg)}
		if err := b.svc.RefreshMember(ctx, user, msg.Room, senderName(msg)); err != nil {
			b.fail(ctx, msg.Room, "update", err)
			return
		}
		b.send(ctx, msg.Room, formatter.MemberRefreshed(senderName(msg)))
	case "접두사", "setprefix":
		if len(args) == 0 {
			b.send(ctx, msg.Room, formatter.PrefixInvalid())
			return
		}
		if err := b.svc.SetPrefix(ctx, msg.Room, args[0]); err != nil {
			if errors.Is(err, svcwordle.ErrPrefixInvalid) {
				b.send(ctx, msg.Room, formatter.PrefixInvalid())
				return
			}
			b.fail(ctx, msg.Room, "setprefix", err)
			return
		}
		b.send(ctx, msg.Room, formatter.PrefixUpdated(args[0]))
	case "수집방", "setchannel":
		target := msg.Room
		if len(args) > 0 {
			target = args[0]
		}
		if err := b.svc.SetWordleRoom(ctx, msg.Room, target); err != nil {
			b.fail(ctx, msg.Room, "setchannel", err)
			return
		}
		b.send(ctx, msg.Room, formatter.ChannelUpdated(target))
	case "도움", "help":
		b.send(ctx, msg.Room, formatter.Help())
	default:
		b.send(ctx, msg.Room, formatter.Help())
	}
}

// handleLeaderboard either flips the live view to a page (numeric argument)
// or builds a fresh board for the requested period.
func (b *bot) handleLeaderboard(ctx context.Context, msg *irisfast.Message, formatter *wordlepresenter.Formatter, args []string, scope leaderboard.Scope) {
	userID := userIDFromMessage(msg)

	if len(args) == 1 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			view, _, err := b.views.Load(ctx, msg.Room, userID)
			if err != nil {
				b.fail(ctx, msg.Room, "leaderboard", err)
				return
			}
			if view == nil {
				b.send(ctx, msg.Room, formatter.NoActiveBoard())
				return
			}
			page := view.ClampPage(n - 1)
			if err := b.views.SetPage(ctx, msg.Room, userID, page); err != nil {
				b.logger.Warn("view page update failed", zap.Error(err))
			}
			b.send(ctx, msg.Room, formatter.Leaderboard(view, page))
			return
		}
	}

	rawPeriod := strings.Join(args, " ")
	period, ok := leaderboard.ParsePeriod(rawPeriod)
	if !ok {
		b.send(ctx, msg.Room, formatter.BadPeriod(rawPeriod))
		return
	}

	view, err := b.engine.BuildView(ctx, period, scope, userID)
	if err != nil {
		b.fail(ctx, msg.Room, "leaderboard", err)
		return
	}
	if len(view.Entries) > 0 {
		if _, err := b.views.Save(ctx, msg.Room, userID, view, 0); err != nil {
			b.logger.Warn("view save failed", zap.Error(err))
		}
	}
	b.send(ctx, msg.Room, formatter.Leaderboard(view, 0))
}

func (b *bot) send(ctx context.Context, room, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if err := b.egress.SendText(ctx, room, text); err != nil {
		b.logger.Error("send failed", zap.String("room", room), zap.Error(err))
	}
}

func (b *bot) fail(ctx context.Context, room, op string, err error) {
	b.logger.Error("command failed", zap.String("op", op), zap.String("room", room), zap.Error(err))
	b.send(ctx, room, "요청을 처리하지 못했습니다. 잠시 후 다시 시도해주세요.")
}

func roomAllowed(allowed []string, room string) bool {
	for _, r := range allowed {
		if r == room {
			return true
		}
	}
	return false
}

func userIDFromMessage(msg *irisfast.Message) string {
	if msg.JSON != nil && msg.JSON.UserID != "" {
		return msg.JSON.UserID
	}
	if msg.Sender != nil {
		return strings.TrimSpace(*msg.Sender)
	}
	return ""
}

func senderName(msg *irisfast.Message) string {
	if msg.JSON != nil && strings.TrimSpace(msg.JSON.UserName) != "" {
		return strings.TrimSpace(msg.JSON.UserName)
	}
	if msg.Sender != nil && strings.TrimSpace(*msg.Sender) != "" {
		return strings.TrimSpace(*msg.Sender)
	}
	return userIDFromMessage(msg)
}

func avatarURL(msg *irisfast.Message) string {
	if msg.JSON != nil {
		return msg.JSON.AvatarURL
	}
	return ""
}

// postedAt uses the bridge timestamp when present; ingest maps it to the
// reference timezone.
func postedAt(msg *irisfast.Message) time.Time {
	if msg.JSON != nil && msg.JSON.Time > 0 {
		return time.UnixMilli(msg.JSON.Time)
	}
	return time.Now()
}

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }
