package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"anime-character-catalog/backend/internal/models"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCharacters(w io.Writer, characters []models.Character, asJSON bool) error {
	if asJSON {
		return printJSON(w, characters)
	}
	if len(characters) == 0 {
		fmt.Fprintln(w, "No characters found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tANIME\tROLE\tABILITIES")
	for _, c := range characters {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Anime, c.Role, strings.Join(c.Abilities, ", "))
	}
	return tw.Flush()
}

func printCharacter(w io.Writer, c *models.Character, asJSON bool) error {
	if asJSON {
		return printJSON(w, c)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", c.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", c.Name)
	fmt.Fprintf(tw, "Anime:\t%s\n", c.Anime)
	fmt.Fprintf(tw, "Role:\t%s\n", c.Role)
	fmt.Fprintf(tw, "Image:\t%s\n", c.ImageURL)
	if len(c.Abilities) > 0 {
		fmt.Fprintf(tw, "Abilities:\t%s\n", strings.Join(c.Abilities, ", "))
	}
	fmt.Fprintf(tw, "Created:\t%s\n", c.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(tw, "Updated:\t%s\n", c.UpdatedAt.Format("2006-01-02 15:04:05"))
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s\n", c.Description)
	return nil
}
