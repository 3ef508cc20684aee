package commands

import (
	"github.com/spf13/cobra"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
	"github.com/LiveData-Inc/air-toolkit/internal/workspace"
)

func newLinkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Manage linked resources",
	}

	cmd.AddCommand(newLinkAddCommand())
	cmd.AddCommand(newLinkRemoveCommand())
	cmd.AddCommand(newLinkListCommand())

	return cmd
}

func newLinkAddCommand() *cobra.Command {
	var (
		path        string
		name        string
		review      bool
		contributor bool
		resType     string
		writable    bool
		classify    bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Link an external repository into the workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := workspace.Load(".")
			if err != nil {
				return hintedError(err)
			}

			relationship := model.RelationshipReviewOnly
			if contributor && !review {
				relationship = model.RelationshipContributor
			}

			var writableOverride *bool
			if cmd.Flags().Changed("writable") {
				writableOverride = &writable
			}

			resource, err := store.LinkAdd(workspace.LinkAddOptions{
				Path:             path,
				Name:             name,
				Relationship:     relationship,
				Type:             model.ResourceType(resType),
				WritableOverride: writableOverride,
				Classify:         classify,
			})
			if err != nil {
				return hintedError(err)
			}

			cmd.Printf("Linked %s (%s, %s)\n", resource.Name, resource.Type, resource.Relationship)

			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "filesystem path to the repository")
	cmd.Flags().StringVar(&name, "name", "", "name the resource is referenced by")
	cmd.Flags().BoolVar(&review, "review", false, "link as review-only (default)")
	cmd.Flags().BoolVar(&contributor, "contributor", false, "link as a contributor (writable by default)")
	cmd.Flags().StringVar(&resType, "type", string(model.ResourceLibrary), "resource type: library, documentation, or service")
	cmd.Flags().BoolVar(&writable, "writable", false, "override the contributor-default writable flag")
	cmd.Flags().BoolVar(&classify, "classify", true, "run the classifier to infer type and technology stack")

	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newLinkRemoveCommand() *cobra.Command {
	var keepLink bool

	cmd := &cobra.Command{
		Use:   "remove NAME",
		Short: "Unlink a resource from the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := workspace.Load(".")
			if err != nil {
				return hintedError(err)
			}

			if err := store.LinkRemove(args[0], keepLink); err != nil {
				return hintedError(err)
			}

			cmd.Printf("Removed %s\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVar(&keepLink, "keep-link", false, "remove from the config but leave the repos/ symlink in place")

	return cmd
}

func newLinkListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List linked resources and their symlink status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := workspace.Load(".")
			if err != nil {
				return hintedError(err)
			}

			for _, status := range store.LinkList() {
				cmd.Printf("%-20s %-10s %-8s %s\n", status.Resource.Name, status.Resource.Relationship, status.Resource.Type, status.Status)
			}

			return nil
		},
	}
}
