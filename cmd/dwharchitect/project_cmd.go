package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/clouddwh/architect/internal/client"
	"github.com/clouddwh/architect/internal/project"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	projName        string
	projDescription string
	projOwner       string
	projManager     string
	projMembers     []string
	projAttrs       []string
	projFile        string
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects"},
	Short:   "Manage projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the projects you are a member of",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a project as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectShow,
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	Long: `Create a project from flags or from a YAML/JSON definition file.

Members are given as id:name:role, the owner and manager as id:name.
Attributes are given as key=type:value with type string, number or boolean.
The owner defaults to you.`,
	Args: cobra.NoArgs,
	RunE: runProjectCreate,
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace a project's definition with the contents of --file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectUpdate,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project (owner only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

func init() {
	f := projectCreateCmd.Flags()
	f.StringVar(&projName, "name", "", "project name")
	f.StringVar(&projDescription, "description", "", "project description")
	f.StringVar(&projOwner, "owner", "", "owner as id:name")
	f.StringVar(&projManager, "manager", "", "manager as id:name")
	f.StringArrayVar(&projMembers, "member", nil, "member as id:name:role (repeatable)")
	f.StringArrayVar(&projAttrs, "attr", nil, "attribute as key=type:value (repeatable)")
	f.StringVarP(&projFile, "file", "f", "", "definition file (YAML or JSON)")

	projectUpdateCmd.Flags().StringVarP(&projFile, "file", "f", "", "definition file (YAML or JSON)")
	_ = projectUpdateCmd.MarkFlagRequired("file")

	projectCmd.AddCommand(projectListCmd, projectShowCmd, projectCreateCmd, projectUpdateCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectList(cmd *cobra.Command, args []string) error {
	c, s, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	projects, err := call(cmd, c.Projects)
	if err != nil {
		return err
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "ID\tNAME\tROLE\tMEMBERS")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ID, p.Data.Common.Name, roleOf(p, s.AccountID), len(p.Data.Members))
	}
	return tw.Flush()
}

func roleOf(p *client.Project, uid string) project.Role {
	role, ok := p.Data.UserRole(uid)
	if !ok {
		return "-"
	}
	return role
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	p, err := call(cmd, func(ctx context.Context) (*client.Project, error) {
		return c.Project(ctx, args[0])
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), p)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	var def project.Definition
	var err error
	if projFile != "" {
		def, err = readDefinition(projFile)
	} else {
		def, err = definitionFromFlags()
	}
	if err != nil {
		return err
	}

	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	p, err := call(cmd, func(ctx context.Context) (*client.Project, error) {
		return c.CreateProject(ctx, def)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.Data.Common.Name, p.ID)
	return nil
}

func runProjectUpdate(cmd *cobra.Command, args []string) error {
	def, err := readDefinition(projFile)
	if err != nil {
		return err
	}
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	p, err := call(cmd, func(ctx context.Context) (*client.Project, error) {
		return c.UpdateProject(ctx, args[0], def)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s (%s)\n", p.Data.Common.Name, p.ID)
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	c, _, err := sessionClient(cmd)
	if err != nil {
		return err
	}
	if _, err := call(cmd, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.DeleteProject(ctx, args[0])
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
	return nil
}

// readDefinition parses a definition file. JSON is valid YAML, so one
// decoder covers both.
func readDefinition(path string) (project.Definition, error) {
	var def project.Definition
	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("reading definition: %w", err)
	}
	if err := yaml.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("parsing definition %s: %w", path, err)
	}
	return def, nil
}

func definitionFromFlags() (project.Definition, error) {
	def := project.Definition{Name: projName}
	if projDescription != "" {
		desc := projDescription
		def.Description = &desc
	}
	if projOwner != "" {
		m, err := parseMember(projOwner, project.RoleOwner)
		if err != nil {
			return def, fmt.Errorf("--owner: %w", err)
		}
		def.Owner = m
	}
	if projManager != "" {
		m, err := parseMember(projManager, project.RoleManager)
		if err != nil {
			return def, fmt.Errorf("--manager: %w", err)
		}
		def.Manager = &m
	}
	for _, spec := range projMembers {
		m, err := parseMember(spec, "")
		if err != nil {
			return def, fmt.Errorf("--member %q: %w", spec, err)
		}
		def.Members = append(def.Members, m)
	}
	for _, spec := range projAttrs {
		a, err := parseAttribute(spec)
		if err != nil {
			return def, fmt.Errorf("--attr %q: %w", spec, err)
		}
		def.Attributes = append(def.Attributes, a)
	}
	return def, nil
}

// parseMember reads id:name, or id:name:role when role is empty.
func parseMember(spec string, role project.Role) (project.Member, error) {
	parts := strings.Split(spec, ":")
	want := 3
	if role != "" {
		want = 2
	}
	if len(parts) != want || parts[0] == "" {
		if role != "" {
			return project.Member{}, fmt.Errorf("want id:name")
		}
		return project.Member{}, fmt.Errorf("want id:name:role")
	}
	m := project.Member{ID: parts[0], Name: parts[1], Role: role}
	if role == "" {
		m.Role = project.Role(parts[2])
		if !m.Role.Regular() {
			return project.Member{}, fmt.Errorf("role %q is not a member role", parts[2])
		}
	}
	return m, nil
}

// parseAttribute reads key=type:value.
func parseAttribute(spec string) (project.Attribute, error) {
	key, rest, ok := strings.Cut(spec, "=")
	if !ok || key == "" {
		return project.Attribute{}, fmt.Errorf("want key=type:value")
	}
	typ, raw, ok := strings.Cut(rest, ":")
	if !ok {
		return project.Attribute{}, fmt.Errorf("want key=type:value")
	}
	a := project.Attribute{Key: key, Type: project.AttributeType(typ)}
	switch a.Type {
	case project.AttributeString:
		a.Value = raw
	case project.AttributeNumber:
		n, ok := project.ToNumber(raw)
		if !ok {
			return project.Attribute{}, fmt.Errorf("%q is not a number", raw)
		}
		a.Value = n
	case project.AttributeBoolean:
		switch strings.ToLower(raw) {
		case "true", "yes", "1":
			a.Value = true
		case "false", "no", "0":
			a.Value = false
		default:
			return project.Attribute{}, fmt.Errorf("%q is not a boolean", raw)
		}
	default:
		return project.Attribute{}, fmt.Errorf("unknown type %q", typ)
	}
	return a, nil
}
