package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gosuda/plaza/internal/auth"
	"github.com/gosuda/plaza/internal/config"
)

func newTokenCommand() *cobra.Command {
	var (
		operator string
		role     string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token signed with PLAZA_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = cfg.JWT.TTL
			}

			tok, err := auth.IssueToken(cfg.JWT.Secret, operator, role, ttl)
			if err != nil {
				return fmt.Errorf("token: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "", "Operator name carried as the token subject")
	cmd.Flags().StringVar(&role, "role", auth.RoleViewer, "Role: admin, editor or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default PLAZA_JWT_TTL)")
	_ = cmd.MarkFlagRequired("operator")

	return cmd
}
