package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/omnichat/omni/internal/entity"
)

var askCmd = &cobra.Command{
	Use:   "ask <chat> <message...>",
	Short: "Send a message to a chat and print the response",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAsk,
}

var askProvider string

var chatCmd = &cobra.Command{
	Use:   "chat <chat>",
	Short: "Converse with a chat interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runChat,
}

var consultCmd = &cobra.Command{
	Use:   "consult <chat> <question...>",
	Short: "Ask two providers the same question and record a merged answer",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runConsult,
}

var (
	consultPrimary   string
	consultSecondary string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <chat>",
	Short: "Condense a chat into a summary and retire the chat",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

var summarizeLong bool

func init() {
	askCmd.Flags().StringVar(&askProvider, "provider", "", "Provider to use (default: the chat's last provider)")
	chatCmd.Flags().StringVar(&askProvider, "provider", "", "Provider to use (default: the chat's last provider)")
	consultCmd.Flags().StringVar(&consultPrimary, "primary", "", "Primary provider (answers and merges)")
	consultCmd.Flags().StringVar(&consultSecondary, "secondary", "", "Secondary provider")
	summarizeCmd.Flags().BoolVar(&summarizeLong, "long", false, "Structured long summary instead of a short one")
	rootCmd.AddCommand(askCmd, chatCmd, consultCmd, summarizeCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	ce, err := s.Resolve(entity.KindChat, args[0])
	if err != nil {
		return describeAmbiguity(err)
	}
	text, err := s.Ask(cmd.Context(), ce.ID, askProvider, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("chat needs a terminal; pipe input through 'ask' instead")
	}
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	ce, err := s.Resolve(entity.KindChat, args[0])
	if err != nil {
		return describeAmbiguity(err)
	}

	fmt.Printf("chatting in %s (%s), empty line or ctrl-d to leave\n", ce.Name, ce.ID)
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			break
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			break
		}
		text, err := s.Ask(cmd.Context(), ce.ID, askProvider, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Println(text)
	}
	return in.Err()
}

func runConsult(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	ce, err := s.Resolve(entity.KindChat, args[0])
	if err != nil {
		return describeAmbiguity(err)
	}
	primary, secondary := consultPrimary, consultSecondary
	if primary == "" {
		primary = s.DefaultProvider()
	}
	if secondary == "" {
		for _, name := range s.Providers() {
			if name != primary {
				secondary = name
				break
			}
		}
	}
	res, err := s.Consult(cmd.Context(), ce.ID, primary, secondary, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Printf("--- %s ---\n%s\n\n--- %s ---\n%s\n\n--- merged ---\n%s\n",
		primary, res.Primary, secondary, res.Secondary, res.Merged)
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	ce, err := s.Resolve(entity.KindChat, args[0])
	if err != nil {
		return describeAmbiguity(err)
	}
	kind := entity.SummaryShort
	if summarizeLong {
		kind = entity.SummaryLong
	}
	sum, err := s.Summarize(cmd.Context(), ce.ID, kind)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s (%d words)\n\n%s\n", sum.ID, sum.Name, sum.WordCount, sum.Body)
	return nil
}
