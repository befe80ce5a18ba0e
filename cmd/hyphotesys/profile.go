// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit the researcher profile",
	Long: `The researcher profile describes who is using this installation. It is
copied into every new session and project, and its research focus is
passed to the thesis agent.`,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the researcher profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		prof := store.Profile()
		if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
			data, err := yaml.Marshal(prof)
			if err != nil {
				return fmt.Errorf("marshaling YAML: %w", err)
			}
			_, err = os.Stdout.Write(data)
			return err
		}
		printer().Profile(prof)
		return nil
	},
}

// profileFields maps flag names to the profile field they set.
var profileFields = []string{"name", "email", "affiliation", "focus", "orcid", "pubmed-id"}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update profile fields given as flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		prof := store.Profile()

		changed := 0
		for _, flag := range profileFields {
			if !cmd.Flags().Changed(flag) {
				continue
			}
			v, _ := cmd.Flags().GetString(flag)
			switch flag {
			case "name":
				prof.Name = v
			case "email":
				prof.Email = v
			case "affiliation":
				prof.Affiliation = v
			case "focus":
				prof.ResearchFocus = v
			case "orcid":
				prof.ORCID = v
			case "pubmed-id":
				prof.PubMedID = v
			}
			changed++
		}
		if changed == 0 {
			return fmt.Errorf("nothing to set: pass at least one of --name, --email, --affiliation, --focus, --orcid, --pubmed-id")
		}

		if err := store.SaveProfile(prof); err != nil {
			return err
		}
		printer().Profile(store.Profile())
		return nil
	},
}

func init() {
	profileShowCmd.Flags().Bool("yaml", false, "print the profile as YAML")

	profileSetCmd.Flags().String("name", "", "researcher name")
	profileSetCmd.Flags().String("email", "", "contact email")
	profileSetCmd.Flags().String("affiliation", "", "institution")
	profileSetCmd.Flags().String("focus", "", "research focus, passed to the thesis agent")
	profileSetCmd.Flags().String("orcid", "", "ORCID identifier")
	profileSetCmd.Flags().String("pubmed-id", "", "PubMed author identifier")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}
