package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wheels/auth"
	"wheels/models"
)

var tokenFlags struct {
	user string
	name string
	role string
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		role := models.Role(tokenFlags.role)
		if role != models.RoleDriver && role != models.RoleRider {
			return fmt.Errorf("role must be driver or rider, got %q", tokenFlags.role)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		token, err := auth.NewJWTService(cfg.JWT).GenerateToken(tokenFlags.user, tokenFlags.name, role)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenFlags.user, "user", "", "user id")
	f.StringVar(&tokenFlags.name, "name", "", "display name")
	f.StringVar(&tokenFlags.role, "role", string(models.RoleRider), "driver or rider")
	_ = tokenCmd.MarkFlagRequired("user")
}
