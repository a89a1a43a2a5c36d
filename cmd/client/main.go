// Command client is a terminal front end for the chat synchronization
// engine. It talks to the REST server and optionally to its websocket.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"healthcare-chat/apperror"
	"healthcare-chat/chatsync"
	"healthcare-chat/config"
	"healthcare-chat/config/common"
	"healthcare-chat/config/logger"
	"healthcare-chat/enum"
	"healthcare-chat/push"
	"healthcare-chat/restclient"
	"healthcare-chat/session"
)

const usage = `usage: client [flags] <command> [args]

commands:
  rooms                       list chat rooms
  friends                     list accepted friends
  requests                    list incoming friend requests
  add-friend <userID>         send a friend request
  respond <requestID> <accept|reject>
  start-chat <userID>         open or reuse the private room with a user
  send <roomID> <text...>     send a message
  watch <roomID>              follow a room until interrupted
  feed                        follow the activity counters until interrupted

flags:
`

type client struct {
	log       *logrus.Logger
	session   *session.Session
	engine    *chatsync.Engine
	directory *chatsync.RoomDirectory
	friends   *chatsync.FriendManager
}

func main() {
	flags := pflag.NewFlagSet("client", pflag.ExitOnError)
	flags.String("base-url", "", "chat server base URL")
	flags.String("push-url", "", "websocket base URL, empty disables push")
	flags.String("token", "", "bearer token")
	flags.Duration("poll-interval", 0, "room poll interval")
	flags.String("log-level", "warn", "log level")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	cfg := common.NewViper()
	if err := cfg.BindFlags(flags, map[string]string{
		"CHAT_BASE_URL":      "base-url",
		"CHAT_PUSH_URL":      "push-url",
		"CHAT_TOKEN":         "token",
		"CHAT_POLL_INTERVAL": "poll-interval",
		"LOG_LEVEL":          "log-level",
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if flags.NArg() == 0 {
		flags.Usage()
		os.Exit(2)
	}

	log := config.NewLogger(cfg.Viper.GetString("LOG_LEVEL"))
	c, err := newClient(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to start client")
	}
	defer c.engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.run(ctx, flags.Arg(0), flags.Args()[1:]); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", flags.Arg(0), err)
		if apperror.IsAuth(err) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func newClient(cfg *common.Config, log *logrus.Logger) (*client, error) {
	clientConfig := cfg.GetClientConfig()
	s, err := session.New(clientConfig.Token)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	opts := chatsync.OptionsFromConfig(clientConfig)
	rest := restclient.New(clientConfig.BaseURL, s, opts.RequestTimeout, log)

	engine := chatsync.NewEngine(rest, s, config.NewValidator(), log,
		logger.NewLogger(cfg.Viper.GetString("LOG_DIR")), opts)
	if clientConfig.PushURL != "" {
		engine.SetPusher(push.NewSubscriber(clientConfig.PushURL, s, log))
	}
	return &client{
		log:       log,
		session:   s,
		engine:    engine,
		directory: chatsync.NewRoomDirectory(rest, s, log, opts.RequestTimeout),
		friends:   chatsync.NewFriendManager(rest, s, log, opts.RequestTimeout),
	}, nil
}

func (c *client) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "rooms":
		rooms, err := c.directory.ListRooms(ctx)
		if err != nil {
			return err
		}
		for _, room := range rooms {
			fmt.Printf("%d\t%s\n", room.ID, roomTitle(room))
		}
	case "friends":
		edges, err := c.friends.ListFriends(ctx)
		if err != nil {
			return err
		}
		c.printEdges(edges)
	case "requests":
		edges, err := c.friends.ListIncomingRequests(ctx)
		if err != nil {
			return err
		}
		c.printEdges(edges)
	case "add-friend":
		target, err := intArg(args, 0, "userID")
		if err != nil {
			return err
		}
		result, err := c.friends.SendFriendRequest(ctx, target)
		if err != nil {
			return err
		}
		fmt.Println(result.Status)
	case "respond":
		edgeID, err := intArg(args, 0, "requestID")
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return apperror.Validation("respond", "missing accept or reject")
		}
		edge, err := c.friends.RespondToRequest(ctx, edgeID, enum.FriendAction(args[1]))
		if err != nil {
			return err
		}
		fmt.Printf("%d\t%s\n", edge.ID, edge.Status)
	case "start-chat":
		target, err := intArg(args, 0, "userID")
		if err != nil {
			return err
		}
		roomID, err := c.directory.StartChat(ctx, target)
		if err != nil {
			return err
		}
		fmt.Println(roomID)
	case "send":
		roomID, err := intArg(args, 0, "roomID")
		if err != nil {
			return err
		}
		message, err := c.engine.SendMessage(ctx, roomID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("%d\t%s\n", message.ID, message.Timestamp.Format("15:04:05"))
	case "watch":
		roomID, err := intArg(args, 0, "roomID")
		if err != nil {
			return err
		}
		return c.watch(ctx, roomID)
	case "feed":
		return c.feed(ctx)
	default:
		return apperror.Validation(command, "unknown command")
	}
	return nil
}

func (c *client) watch(ctx context.Context, roomID int64) error {
	view, err := c.engine.OpenRoom(ctx, roomID)
	if err != nil {
		return err
	}
	defer view.Close()

	printed := map[int64]bool{}
	degraded := false
	changes := view.Subscribe()
	for {
		for _, m := range view.Messages() {
			if m.IsPending() || printed[m.ID] {
				continue
			}
			printed[m.ID] = true
			fmt.Printf("[%s] %s: %s\n", m.Timestamp.Local().Format("15:04:05"), m.Sender.Username, m.Content)
		}
		if view.Degraded() != degraded {
			degraded = view.Degraded()
			if degraded {
				fmt.Fprintf(os.Stderr, "connection problems, retrying: %v\n", view.LastError())
			} else {
				fmt.Fprintln(os.Stderr, "connection restored")
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-view.Done():
			if err := c.session.Err(); err != nil {
				return apperror.Wrap(apperror.KindAuth, "watch", err)
			}
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
		}
	}
}

func (c *client) feed(ctx context.Context) error {
	activity := chatsync.NewActivityFeed(c.directory, c.friends, c.engine, c.log, c.engine.Options().PollInterval)
	changes, unsubscribe := activity.Subscribe()
	defer unsubscribe()

	go func() {
		for range changes {
			snapshot := activity.Snapshot()
			fmt.Printf("%s  chats=%d friends=%d requests=%d unread=%d\n",
				snapshot.RefreshedAt.Local().Format("15:04:05"),
				snapshot.Count(enum.TabChats), snapshot.Count(enum.TabFriends),
				snapshot.Count(enum.TabRequests), snapshot.Unread)
		}
	}()
	return activity.Run(ctx)
}

func (c *client) printEdges(edges []chatsync.FriendEdge) {
	me := c.session.UserID()
	for _, edge := range edges {
		other := edge.OtherParty(me)
		fmt.Printf("%d\t%s (%d)\t%s\n", edge.ID, other.Username, other.ID, edge.Status)
	}
}

func roomTitle(room chatsync.ChatRoom) string {
	if room.OtherUser != nil {
		return room.OtherUser.Username
	}
	names := make([]string, 0, len(room.Participants))
	for _, p := range room.Participants {
		names = append(names, p.Username)
	}
	return strings.Join(names, ", ")
}

func intArg(args []string, i int, name string) (int64, error) {
	if len(args) <= i {
		return 0, apperror.Validation("args", "missing "+name)
	}
	value, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil || value <= 0 {
		return 0, apperror.Validation("args", "invalid "+name+": "+args[i])
	}
	return value, nil
}
