package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/authority"
	"github.com/frahmantamala/resolution-tracker/internal/content"
	"github.com/frahmantamala/resolution-tracker/internal/interaction"
	"github.com/frahmantamala/resolution-tracker/internal/realtime"
	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/view"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

var viewOpts struct {
	token       string
	follow      bool
	say         string
	replyTo     int64
	action      string
	status      string
	reason      string
	comment     string
	deadline    string
	progress    int
	description string
}

var viewCmd = &cobra.Command{
	Use:   "view [resolution-id]",
	Short: "Open a resolution as a user would see it",
	Long: `Open a resolution through the API with the permissions of the token holder.
Optionally post a message, report progress or run a workflow action, and
keep following the live room with --follow.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runView(args[0])
	},
}

func runView(publicID string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if viewOpts.token != "" {
		ctx = internal.ContextWithToken(ctx, viewOpts.token)
	}

	client := authority.NewClient(cfg.Authority, lg)
	viewer, err := client.FetchCurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("resolve current user: %w", err)
	}

	deps := view.Deps{Authority: client, Logger: lg, Workers: 4}
	if viewOpts.follow && cfg.Realtime.RedisURL != "" {
		rdb, err := realtime.NewRedisClient(cfg.Realtime.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		rooms := realtime.NewAdapter(realtime.NewRedisChannel(rdb, cfg.Realtime.Prefix(), lg), lg)
		defer rooms.Close()
		deps.Realtime = rooms
	}

	changed := make(chan struct{}, 1)
	deps.OnChange = func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	session, err := view.Open(ctx, deps, publicID, *viewer)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := applyViewCommand(ctx, session); err != nil {
		fmt.Fprintln(os.Stderr, internal.UserMessage(err))
	}
	renderSession(os.Stdout, session)

	if !viewOpts.follow {
		return nil
	}
	if deps.Realtime == nil {
		lg.Warn("realtime.redis_url is not configured, nothing to follow")
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			renderSession(os.Stdout, session)
		}
	}
}

// applyViewCommand runs at most one write requested on the command line.
func applyViewCommand(ctx context.Context, s *view.Session) error {
	switch {
	case viewOpts.action != "":
		req := resolution.Request{
			Action:  resolution.Action(viewOpts.action),
			Status:  resolution.Status(viewOpts.status),
			Reason:  viewOpts.reason,
			Comment: viewOpts.comment,
		}
		if viewOpts.deadline != "" {
			d, err := time.Parse("2006-01-02", viewOpts.deadline)
			if err != nil {
				return fmt.Errorf("--deadline must be YYYY-MM-DD: %w", err)
			}
			req.Deadline = &d
		}
		_, err := s.Transition(ctx, req)
		return err
	case viewOpts.description != "":
		_, err := s.SubmitProgress(ctx, viewOpts.progress, viewOpts.description)
		return err
	case viewOpts.say != "":
		s.Composer().SetText(viewOpts.say, len([]rune(viewOpts.say)))
		var replyTo *int64
		if viewOpts.replyTo != 0 {
			replyTo = &viewOpts.replyTo
		}
		_, err := s.SendMessage(ctx, replyTo, nil)
		return err
	}
	return nil
}

func renderSession(w io.Writer, s *view.Session) {
	r := s.Resolution()
	g := s.Gate()

	fmt.Fprintf(w, "%s  [%s] %s  progress %d%%\n", r.Reference(), r.Type, r.Status, r.Progress)
	if r.Deadline != nil {
		fmt.Fprintf(w, "deadline %s\n", r.Deadline.Format("2006-01-02"))
	}
	fmt.Fprintln(w, content.PlainText(r.Description))

	var actions []string
	for _, a := range g.Actions() {
		actions = append(actions, string(a))
	}
	fmt.Fprintf(w, "actions: %s  chat: %s  progress: %t\n",
		strings.Join(actions, ", "), g.Chat(), g.CanSubmitProgress())

	if g.Chat() == resolution.ChatHidden {
		return
	}

	people := table.NewWriter()
	people.SetOutputMirror(w)
	people.AppendHeader(table.Row{"ID", "Participant"})
	for _, p := range s.Roster() {
		people.AppendRow(table.Row{p.ID, s.ParticipantLabel(p)})
	}
	people.Render()

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"#", "When", "From", "Message"})
	for _, it := range s.Items() {
		switch it.Kind {
		case interaction.KindProgress:
			p := it.Progress
			tw.AppendRow(table.Row{p.ID, p.CreatedAt.Format("2006-01-02 15:04"), p.Author.Name,
				fmt.Sprintf("progress %d%%: %s", p.Progress, p.Description)})
		default:
			in := it.Interaction
			msg := content.PlainText(in.Content)
			if in.ReplyTo != nil {
				reply := s.ReplyPreview(*in.ReplyTo)
				msg = fmt.Sprintf("> %s\n%s", content.PlainText(reply.Content), msg)
			}
			tw.AppendRow(table.Row{in.ID, in.CreatedAt.Format("2006-01-02 15:04"), in.Author.Name, msg})
		}
	}
	tw.Render()
}

func init() {
	f := viewCmd.Flags()
	f.StringVar(&viewOpts.token, "token", "", "access token (defaults to authority.token)")
	f.BoolVar(&viewOpts.follow, "follow", false, "keep the view open and re-render on live updates")
	f.StringVar(&viewOpts.say, "say", "", "post a message to the discussion")
	f.Int64Var(&viewOpts.replyTo, "reply-to", 0, "id of the message being replied to")
	f.StringVar(&viewOpts.action, "action", "", "workflow action to run (accept, return, approve_ceo, ...)")
	f.StringVar(&viewOpts.status, "status", "", "target status for update_status")
	f.StringVar(&viewOpts.reason, "reason", "", "reason for return")
	f.StringVar(&viewOpts.comment, "comment", "", "comment for return_to_secretary")
	f.StringVar(&viewOpts.deadline, "deadline", "", "deadline for approve_ceo, YYYY-MM-DD")
	f.IntVar(&viewOpts.progress, "progress", 0, "progress percentage to report")
	f.StringVar(&viewOpts.description, "description", "", "progress description to report")

	rootCmd.AddCommand(viewCmd)
}
