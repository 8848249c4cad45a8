package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omnichat/omni/internal/entity"
)

var namespaceCmd = &cobra.Command{
	Use:   "namespace",
	Short: "Manage namespaces",
}

var namespaceCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a namespace",
	Args:  cobra.ExactArgs(1),
	RunE:  runNamespaceCreate,
}

var namespaceDesc string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var (
	projectDesc      string
	projectNamespace string
)

var attachCmd = &cobra.Command{
	Use:   "attach <project> <namespace>",
	Short: "Attach a project to a namespace",
	Args:  cobra.ExactArgs(2),
	RunE:  runAttach,
}

var detachCmd = &cobra.Command{
	Use:   "detach <project>",
	Short: "Detach a project from its namespace",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetach,
}

func init() {
	namespaceCreateCmd.Flags().StringVar(&namespaceDesc, "desc", "", "Description")
	namespaceCmd.AddCommand(namespaceCreateCmd)
	projectCreateCmd.Flags().StringVar(&projectDesc, "desc", "", "Description")
	projectCreateCmd.Flags().StringVar(&projectNamespace, "namespace", "", "Owning namespace id or name")
	projectCmd.AddCommand(projectCreateCmd)
	rootCmd.AddCommand(namespaceCmd, projectCmd, attachCmd, detachCmd)
}

func runNamespaceCreate(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	n, err := s.CreateNamespace(args[0], namespaceDesc)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", n.ID, n.Name)
	return nil
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	namespace := ""
	if projectNamespace != "" {
		ne, err := s.Resolve(entity.KindNamespace, projectNamespace)
		if err != nil {
			return describeAmbiguity(err)
		}
		namespace = ne.ID
	}
	p, err := s.CreateProject(args[0], projectDesc, namespace)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", p.ID, p.Name)
	return nil
}

func runAttach(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	pe, err := s.Resolve(entity.KindProject, args[0])
	if err != nil {
		return describeAmbiguity(err)
	}
	ne, err := s.Resolve(entity.KindNamespace, args[1])
	if err != nil {
		return describeAmbiguity(err)
	}
	return s.AttachProject(pe.ID, ne.ID)
}

func runDetach(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	pe, err := s.Resolve(entity.KindProject, args[0])
	if err != nil {
		return describeAmbiguity(err)
	}
	return s.DetachProject(pe.ID)
}
