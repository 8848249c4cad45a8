package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search chat and summary text for a substring",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var (
	searchProject   string
	searchNamespace string
	searchChat      string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired temporary chats",
	RunE:  runSweep,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rebuild the index from the documents on disk",
	RunE:  runReconcile,
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers",
	RunE:  runProviders,
}

func init() {
	searchCmd.Flags().StringVar(&searchProject, "project", "", "Limit to a project")
	searchCmd.Flags().StringVar(&searchNamespace, "namespace", "", "Limit to a namespace")
	searchCmd.Flags().StringVar(&searchChat, "chat", "", "Limit to one chat")
	rootCmd.AddCommand(searchCmd, sweepCmd, reconcileCmd, providersCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	scope := store.Scope{}
	if searchProject != "" {
		pe, err := s.Resolve(entity.KindProject, searchProject)
		if err != nil {
			return describeAmbiguity(err)
		}
		scope.Project = pe.ID
	}
	if searchNamespace != "" {
		ne, err := s.Resolve(entity.KindNamespace, searchNamespace)
		if err != nil {
			return describeAmbiguity(err)
		}
		scope.Namespace = ne.ID
	}
	if searchChat != "" {
		ce, err := s.Resolve(entity.KindChat, searchChat)
		if err != nil {
			return describeAmbiguity(err)
		}
		scope.ChatID = ce.ID
	}
	results, err := s.Search(strings.Join(args, " "), scope)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%s  %s (%s)\n", r.Entry.ID, r.Entry.Name, r.Entry.Kind)
		for _, m := range r.Matches {
			fmt.Printf("  %d: %s\n", m.Line, m.Text)
		}
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	removed, err := s.SweepExpired()
	for _, id := range removed {
		fmt.Println("removed", id)
	}
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Println("nothing expired")
	}
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	rep, err := s.Reconcile()
	if err != nil {
		return err
	}
	fmt.Printf("scanned %d, rebuilt %d entries\n", rep.Scanned, rep.Rebuilt)
	for _, id := range rep.MissingFiles {
		fmt.Println("missing document for", id)
	}
	for _, p := range rep.OrphanDocuments {
		fmt.Println("adopted", p)
	}
	for _, c := range rep.Corrupt {
		fmt.Printf("corrupt %s: %s\n", c.Path, c.Reason)
	}
	for _, p := range rep.Duplicates {
		fmt.Println("duplicate", p)
	}
	return nil
}

func runProviders(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	def := s.DefaultProvider()
	names := s.Providers()
	if len(names) == 0 {
		fmt.Println("no providers configured")
		return nil
	}
	for _, name := range names {
		if name == def {
			fmt.Println(name, "(default)")
		} else {
			fmt.Println(name)
		}
	}
	return nil
}
