package main

import (
	"fmt"

	"anime-character-catalog/backend/internal/models"

	"github.com/spf13/cobra"
)

func newListCmd(opts *options) *cobra.Command {
	var search, role, sort string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List characters, optionally searched, filtered by role and sorted",
		Long: `List characters from the server.

--search matches any word against name, anime and description.
--role keeps only one of: Protagonist, Antagonist, Supporting, Villain, Anti-Hero, Other.
--sort is one of newest (default), name-asc, name-desc, anime.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			characters, err := opts.client().List(cmd.Context(), models.ListQuery{
				Search: search,
				Role:   models.Role(role),
				Sort:   models.SortOrder(sort),
			})
			if err != nil {
				return err
			}
			return printCharacters(cmd.OutOrStdout(), characters, opts.json)
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "free-text search")
	cmd.Flags().StringVar(&role, "role", "", "only characters with this role")
	cmd.Flags().StringVar(&sort, "sort", "", "sort order")
	return cmd
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			character, err := opts.state().FetchOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printCharacter(cmd.OutOrStdout(), character, opts.json)
		},
	}
}

// characterFlags binds the editable fields. Only flags the user set are sent
// on update.
type characterFlags struct {
	name, anime, description, imageURL, role string
	abilities                                []string
}

func (f *characterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "character name")
	cmd.Flags().StringVar(&f.anime, "anime", "", "anime title")
	cmd.Flags().StringVar(&f.description, "description", "", "short description")
	cmd.Flags().StringVar(&f.imageURL, "image-url", "", "http(s) URL of a jpg, jpeg, png, webp, gif or svg image")
	cmd.Flags().StringVar(&f.role, "role", "", "role (defaults to Other)")
	cmd.Flags().StringArrayVar(&f.abilities, "ability", nil, "ability, repeatable")
}

func (f *characterFlags) createRequest() *models.CreateCharacterRequest {
	return &models.CreateCharacterRequest{
		Name:        f.name,
		Anime:       f.anime,
		Description: f.description,
		ImageURL:    f.imageURL,
		Role:        models.Role(f.role),
		Abilities:   models.AbilityList(f.abilities),
	}
}

func (f *characterFlags) updateRequest(cmd *cobra.Command) *models.UpdateCharacterRequest {
	req := &models.UpdateCharacterRequest{}
	changed := cmd.Flags().Changed
	if changed("name") {
		req.Name = &f.name
	}
	if changed("anime") {
		req.Anime = &f.anime
	}
	if changed("description") {
		req.Description = &f.description
	}
	if changed("image-url") {
		req.ImageURL = &f.imageURL
	}
	if changed("role") {
		role := models.Role(f.role)
		req.Role = &role
	}
	if changed("ability") {
		abilities := models.AbilityList(f.abilities)
		req.Abilities = &abilities
	}
	return req
}

func newCreateCmd(opts *options) *cobra.Command {
	flags := &characterFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a character",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			character, err := opts.state().Create(cmd.Context(), flags.createRequest())
			if err != nil {
				return err
			}
			return printCharacter(cmd.OutOrStdout(), character, opts.json)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newUpdateCmd(opts *options) *cobra.Command {
	flags := &characterFlags{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the given fields of a character",
		Example: `  # Reset the role to Other
  catalog update 3f1c... --role ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			character, err := opts.state().Update(cmd.Context(), args[0], flags.updateRequest(cmd))
			if err != nil {
				return err
			}
			return printCharacter(cmd.OutOrStdout(), character, opts.json)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.state().Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Character removed")
			return nil
		},
	}
}

func newFilterCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "filter <text>",
		Short: "Fetch every character and keep those whose name, anime or ability contains text",
		Long: `Fetch the whole catalog and filter it locally.

Unlike list --search, the match is a case-insensitive substring over
name, anime and abilities, and descriptions are not consulted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state := opts.state()
			if err := state.FetchAll(cmd.Context()); err != nil {
				return err
			}
			filtered := state.ApplyTextFilter(args[0])
			if filtered == nil {
				filtered = state.Records()
			}
			return printCharacters(cmd.OutOrStdout(), filtered, opts.json)
		},
	}
}
