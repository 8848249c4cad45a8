package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/index"
	"github.com/omnichat/omni/internal/store"
)

var newCmd = &cobra.Command{
	Use:   "new [first message...]",
	Short: "Create a chat, optionally seeded with a first message",
	RunE:  runNew,
}

var (
	newName    string
	newProject string
	newTemp    bool
	newTTL     time.Duration
)

var listCmd = &cobra.Command{
	Use:       "list [chats|summaries|projects|namespaces]",
	Short:     "List entities, most recently updated first",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"chats", "summaries", "projects", "namespaces"},
	RunE:      runList,
}

var (
	listProject   string
	listNamespace string
	listTemp      bool
)

var showCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Print a chat or summary document",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var renameCmd = &cobra.Command{
	Use:   "rename <id|name> <new name>",
	Short: "Rename a chat, project, or namespace",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id|name>",
	Short: "Delete a chat or summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var appendCmd = &cobra.Command{
	Use:   "append <chat> <text...>",
	Short: "Record a message without calling a provider",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAppend,
}

var (
	appendAssistant bool
	appendProvider  string
)

var moveCmd = &cobra.Command{
	Use:   "move <chat> [project]",
	Short: "Move a chat into a project, or out with no project given",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runMove,
}

func init() {
	newCmd.Flags().StringVar(&newName, "name", "", "Chat name (default derived from the first message)")
	newCmd.Flags().StringVar(&newProject, "project", "", "Owning project id or name")
	newCmd.Flags().BoolVar(&newTemp, "temp", false, "Create a temporary chat")
	newCmd.Flags().DurationVar(&newTTL, "ttl", 0, "Expiry for temporary chats (default from config)")
	listCmd.Flags().StringVar(&listProject, "project", "", "Filter by project id or name")
	listCmd.Flags().StringVar(&listNamespace, "namespace", "", "Filter by namespace id or name")
	listCmd.Flags().BoolVar(&listTemp, "temp", false, "Temporary chats only")
	appendCmd.Flags().BoolVar(&appendAssistant, "assistant", false, "Record as an assistant message")
	appendCmd.Flags().StringVar(&appendProvider, "provider", "", "Provider tag for assistant messages")
	rootCmd.AddCommand(newCmd, listCmd, showCmd, appendCmd, renameCmd, deleteCmd, moveCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	opts := store.CreateChatOptions{
		Name:         newName,
		FirstMessage: strings.Join(args, " "),
		Temporary:    newTemp,
		TTL:          newTTL,
	}
	if newProject != "" {
		pe, err := s.Resolve(entity.KindProject, newProject)
		if err != nil {
			return describeAmbiguity(err)
		}
		opts.Project = pe.ID
	}
	c, err := s.CreateChat(opts)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", c.ID, c.Name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	f := index.Filter{Kind: entity.KindChat, TemporaryOnly: listTemp}
	if len(args) == 1 {
		switch args[0] {
		case "chats":
		case "summaries":
			f.Kind = entity.KindSummary
		case "projects":
			f.Kind = entity.KindProject
		case "namespaces":
			f.Kind = entity.KindNamespace
		}
	}
	if listProject != "" {
		pe, err := s.Resolve(entity.KindProject, listProject)
		if err != nil {
			return describeAmbiguity(err)
		}
		f.Project = pe.ID
	}
	if listNamespace != "" {
		ne, err := s.Resolve(entity.KindNamespace, listNamespace)
		if err != nil {
			return describeAmbiguity(err)
		}
		f.Namespace = ne.ID
	}
	entries := s.List(f)
	if len(entries) == 0 {
		fmt.Println("nothing found")
		return nil
	}
	for _, e := range entries {
		printEntry(e)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	e, err := s.Resolve("", args[0])
	if err != nil {
		e, err = s.Resolve(entity.KindChat, args[0])
	}
	if err != nil && !isAmbiguous(err) {
		e, err = s.Resolve(entity.KindSummary, args[0])
	}
	if err != nil {
		return describeAmbiguity(err)
	}
	switch e.Kind {
	case entity.KindChat:
		c, err := s.GetChat(e.ID)
		if err != nil {
			return err
		}
		fmt.Printf("# %s (%s)\n\n", c.Name, c.ID)
		for _, m := range c.Messages {
			if m.Role == entity.RoleAssistant {
				fmt.Printf("[%s] %s\n%s\n\n", m.Provider, m.Timestamp.Format(time.DateTime), m.Content)
			} else {
				fmt.Printf("[you] %s\n%s\n\n", m.Timestamp.Format(time.DateTime), m.Content)
			}
		}
	case entity.KindSummary:
		sum, err := s.GetSummary(e.ID)
		if err != nil {
			return err
		}
		fmt.Printf("# %s (%s, %s, %d words)\n\n%s\n", sum.Name, sum.ID, sum.Kind, sum.WordCount, sum.Body)
	default:
		return fmt.Errorf("show handles chats and summaries, %s is a %s", e.ID, e.Kind)
	}
	return nil
}

func runAppend(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	ce, err := s.Resolve(entity.KindChat, args[0])
	if err != nil {
		return describeAmbiguity(err)
	}
	m := entity.Message{Role: entity.RoleUser, Content: strings.Join(args[1:], " ")}
	if appendAssistant {
		m.Role = entity.RoleAssistant
		m.Provider = appendProvider
	}
	_, err = s.AppendTurn(ce.ID, m)
	return err
}

func runRename(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	e, err := s.Resolve("", args[0])
	if err != nil {
		return describeAmbiguity(err)
	}
	switch e.Kind {
	case entity.KindChat:
		return s.RenameChat(e.ID, args[1])
	case entity.KindProject:
		return s.RenameProject(e.ID, args[1])
	case entity.KindNamespace:
		return s.RenameNamespace(e.ID, args[1])
	default:
		return fmt.Errorf("cannot rename a %s", e.Kind)
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	e, err := s.Resolve("", args[0])
	if err != nil {
		return describeAmbiguity(err)
	}
	switch e.Kind {
	case entity.KindChat:
		return s.DeleteChat(e.ID)
	case entity.KindSummary:
		return s.DeleteSummary(e.ID)
	case entity.KindProject:
		return s.DeleteProject(e.ID)
	case entity.KindNamespace:
		return s.DeleteNamespace(e.ID)
	default:
		return fmt.Errorf("cannot delete a %s", e.Kind)
	}
}

func runMove(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	ce, err := s.Resolve(entity.KindChat, args[0])
	if err != nil {
		return describeAmbiguity(err)
	}
	project := ""
	if len(args) == 2 {
		pe, err := s.Resolve(entity.KindProject, args[1])
		if err != nil {
			return describeAmbiguity(err)
		}
		project = pe.ID
	}
	return s.MoveChat(ce.ID, project)
}

func printEntry(e index.Entry) {
	line := fmt.Sprintf("%s  %-10s %s", e.ID, e.Kind, e.Name)
	switch e.Kind {
	case entity.KindChat:
		line += fmt.Sprintf("  [%d msgs]", e.MessageCount)
		if e.Temporary && e.ExpiresAt != nil {
			line += fmt.Sprintf("  expires %s", e.ExpiresAt.Format(time.DateTime))
		}
	case entity.KindSummary:
		line += fmt.Sprintf("  [%d words]", e.WordCount)
	}
	fmt.Println(line)
}

func isAmbiguous(err error) bool {
	var amb *store.AmbiguousNameError
	return errors.As(err, &amb)
}

// describeAmbiguity turns an ambiguous-name error into a usable message
// listing the candidates; other errors pass through.
func describeAmbiguity(err error) error {
	var amb *store.AmbiguousNameError
	if !errors.As(err, &amb) {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%q matches several entities, use an id:\n", amb.Fragment)
	for _, c := range amb.Candidates {
		fmt.Fprintf(&b, "  %s  %-10s %s\n", c.ID, c.Kind, c.Name)
	}
	return fmt.Errorf("%s", strings.TrimRight(b.String(), "\n"))
}
