package main

import (
	"fmt"

	"github.com/fixflow/backend/internal/application/currency"
	apptenancy "github.com/fixflow/backend/internal/application/tenancy"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/spf13/cobra"
)

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "fixflowctl",
		Short:        "Administer the Fixflow lifecycle engine",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (defaults to log.level)")

	root.AddCommand(
		newAgencyCommand(a),
		newCurrencyCommand(a),
		newCompanyCommand(a),
		newAccountCommand(a),
		newTokenCommand(a),
	)
	return root
}

func newAgencyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "agency", Short: "Onboard and moderate agencies"}

	var name, code, tax, commission string
	register := &cobra.Command{
		Use:   "register",
		Short: "Register a new agency, pending validation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			taxRate, err := parseRate("tax-rate", tax)
			if err != nil {
				return err
			}
			commissionRate, err := parseRate("commission-rate", commission)
			if err != nil {
				return err
			}
			resp, err := a.services.Directory.RegisterAgency(cmd.Context(), access.System(), apptenancy.RegisterAgencyRequest{
				Name:           name,
				Currency:       code,
				TaxRate:        taxRate,
				CommissionRate: commissionRate,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	register.Flags().StringVar(&name, "name", "", "agency name")
	register.Flags().StringVar(&code, "currency", "", "ISO 4217 currency code")
	register.Flags().StringVar(&tax, "tax-rate", "", "tax rate between 0 and 1 (defaults to invoice.default_tax_rate)")
	register.Flags().StringVar(&commission, "commission-rate", "", "commission rate between 0 and 1 (defaults to invoice.default_commission_rate)")
	_ = register.MarkFlagRequired("name")
	_ = register.MarkFlagRequired("currency")

	validate := &cobra.Command{
		Use:   "validate <agency-id>",
		Short: "Validate an agency so it can diffuse work requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("agency", args[0])
			if err != nil {
				return err
			}
			resp, err := a.services.Directory.ValidateAgency(cmd.Context(), access.System(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	suspend := &cobra.Command{
		Use:   "suspend <agency-id>",
		Short: "Suspend an agency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("agency", args[0])
			if err != nil {
				return err
			}
			resp, err := a.services.Directory.SuspendAgency(cmd.Context(), access.System(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	cmd.AddCommand(register, validate, suspend)
	return cmd
}

func newCurrencyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "currency", Short: "Change agency currencies"}

	var propagate bool
	change := &cobra.Command{
		Use:   "change <agency-id> <currency>",
		Short: "Change the currency of an agency",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("agency", args[0])
			if err != nil {
				return err
			}
			changed, err := a.services.Currency.ChangeAgencyCurrency(cmd.Context(), access.System(), id, currency.ChangeCurrencyRequest{Currency: args[1]})
			if err != nil {
				return err
			}
			if !propagate {
				return printJSON(cmd, changed)
			}
			propagated, err := a.services.Currency.Propagate(cmd.Context(), access.System(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"change": changed, "propagation": propagated})
		},
	}
	change.Flags().BoolVar(&propagate, "propagate", false, "rewrite dependent companies, tenants and orders right away")

	run := &cobra.Command{
		Use:   "propagate <agency-id>",
		Short: "Propagate the agency currency to the rows that inherit it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("agency", args[0])
			if err != nil {
				return err
			}
			resp, err := a.services.Currency.Propagate(cmd.Context(), access.System(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	cmd.AddCommand(change, run)
	return cmd
}

func newCompanyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "company", Short: "Manage service companies"}

	var agency string
	relink := &cobra.Command{
		Use:   "relink <company-id>",
		Short: "Link a service company to another agency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			companyID, err := parseID("company", args[0])
			if err != nil {
				return err
			}
			agencyID, err := parseID("agency", agency)
			if err != nil {
				return err
			}
			resp, err := a.services.Currency.RelinkCompany(cmd.Context(), access.System(), companyID, currency.RelinkCompanyRequest{AgencyID: agencyID})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	relink.Flags().StringVar(&agency, "agency", "", "target agency id")
	_ = relink.MarkFlagRequired("agency")

	cmd.AddCommand(relink)
	return cmd
}

func newAccountCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "account", Short: "Manage login accounts"}

	var email, role, subject string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create the login of an agency, company, technician or tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subjectID, err := parseID("subject", subject)
			if err != nil {
				return err
			}
			resp, err := a.services.Directory.CreateAccount(cmd.Context(), access.System(), apptenancy.CreateAccountRequest{
				Email:     email,
				Role:      role,
				SubjectID: subjectID,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	create.Flags().StringVar(&email, "email", "", "login email")
	create.Flags().StringVar(&role, "role", "", "AGENCY, COMPANY, TECHNICIAN or TENANT")
	create.Flags().StringVar(&subject, "subject", "", "id of the agency, company, technician or tenant")
	for _, name := range []string{"email", "role", "subject"} {
		_ = create.MarkFlagRequired(name)
	}

	deactivate := &cobra.Command{
		Use:   "deactivate <account-id>",
		Short: "Deactivate a login account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("account", args[0])
			if err != nil {
				return err
			}
			resp, err := a.services.Directory.DeactivateAccount(cmd.Context(), access.System(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	cmd.AddCommand(create, deactivate)
	return cmd
}

func newTokenCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token <account-id>",
		Short: "Issue a bearer token for an active account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("account", args[0])
			if err != nil {
				return err
			}
			if _, err := a.services.Resolver.Resolve(cmd.Context(), id); err != nil {
				return err
			}
			tokens, err := a.tokens()
			if err != nil {
				return err
			}
			token, err := tokens.GenerateAccessToken(id)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			return printJSON(cmd, token)
		},
	}
}
