package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/routine-advisor/advisor/internal/chat"
	"github.com/routine-advisor/advisor/internal/transcript"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat MESSAGE...",
		Short: "Send one message to the assistant and print the reply",
		Example: `  advisor chat "Which goes first, serum or moisturizer?"
  advisor chat --endpoint https://worker.example.org/ what is niacinamide`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(opts.cfg)
			if err != nil {
				return err
			}
			s := chat.NewSession(a.transport, opts.cfg.Chat.HistoryWindow)
			reply, err := s.Send(cmd.Context(), strings.Join(args, " "))
			if errors.Is(err, chat.ErrNoReply) {
				return errors.New(chat.NoReplyText)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	addChatFlags(cmd)

	return cmd
}

func newRoutineCmd(opts *rootOptions) *cobra.Command {
	var profile string
	var output string

	cmd := &cobra.Command{
		Use:   "routine",
		Short: "Generate a routine from a profile's selected products",
		Example: `  # Generate a routine from the default profile
  advisor routine

  # Save the conversation for later
  advisor routine --profile morning --output exports/morning.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(opts.cfg)
			if err != nil {
				return err
			}
			sel, err := openProfile(cmd.Context(), a.loader, a.store, profile)
			if err != nil {
				return err
			}

			s := chat.NewSession(a.transport, opts.cfg.Chat.HistoryWindow)
			products := sel.Products()
			reply, err := s.GenerateRoutine(cmd.Context(), products)
			switch {
			case errors.Is(err, chat.ErrNoSelection):
				return fmt.Errorf("%s %s", chat.TipLabel, chat.SelectSomethingTip)
			case errors.Is(err, chat.ErrNoReply):
				return errors.New(chat.NoRoutineText)
			case err != nil:
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, chat.RoutineLabel)
			fmt.Fprintln(out, reply)

			if output != "" {
				t := transcript.New(a.transcript, products, s.Messages(), time.Now())
				if err := transcript.Save(output, t); err != nil {
					return err
				}
				slog.Info("Conversation saved", "path", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", defaultProfile, "Profile whose selection is used")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the conversation to this YAML file")
	addChatFlags(cmd)

	return cmd
}
