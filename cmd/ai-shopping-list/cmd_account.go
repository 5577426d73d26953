package main

import (
	"ai-shopping-list/internal/app"

	"github.com/spf13/cobra"
)

var (
	registerInput app.RegisterInput

	loginEmail    string
	loginPassword string

	profileName      string
	profileHousehold string
	profileAges      []string
	profileDiet      []string
	profileClearDiet bool
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Long: `Create an account. One --age is expected per household member.

Example:
  ai-shopping-list register --email ann@example.com --password 'Secret1!' \
    --confirm-password 'Secret1!' --household 2 --age 34 --age 5 --diet vegetarian`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.Register(cmd.Context(), registerInput)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.Login(cmd.Context(), loginEmail, loginPassword)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.Logout(cmd.Context())
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.WhoAmI()
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the user profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.ShowProfile(cmd.Context())
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	Long: `Update the profile. Only the flags you pass are changed.
--diet adds preferences; combine with --clear-diet to replace them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := app.ProfileInput{
			Ages:               profileAges,
			DietaryPreferences: profileDiet,
			ReplaceDiet:        profileClearDiet,
		}
		if cmd.Flags().Changed("name") {
			in.UserName = &profileName
		}
		if cmd.Flags().Changed("household") {
			in.HouseholdSize = &profileHousehold
		}
		return application.UpdateProfile(cmd.Context(), in)
	},
}

func init() {
	f := registerCmd.Flags()
	f.StringVar(&registerInput.Email, "email", "", "Account email")
	f.StringVar(&registerInput.Password, "password", "", "Account password")
	f.StringVar(&registerInput.ConfirmPassword, "confirm-password", "", "Repeat the password")
	f.StringVar(&registerInput.UserName, "name", "", "Display name")
	f.StringVar(&registerInput.HouseholdSize, "household", "", "Number of people in the household")
	f.StringArrayVar(&registerInput.Ages, "age", nil, "Age of a household member (repeatable)")
	f.StringArrayVar(&registerInput.DietaryPreferences, "diet", nil, "Dietary preference id or custom label (repeatable)")

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")

	f = profileUpdateCmd.Flags()
	f.StringVar(&profileName, "name", "", "Display name")
	f.StringVar(&profileHousehold, "household", "", "Number of people in the household")
	f.StringArrayVar(&profileAges, "age", nil, "Age of a household member (repeatable)")
	f.StringArrayVar(&profileDiet, "diet", nil, "Dietary preference to add (repeatable)")
	f.BoolVar(&profileClearDiet, "clear-diet", false, "Replace preferences instead of adding")

	profileCmd.AddCommand(profileShowCmd, profileUpdateCmd)
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the user profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.ShowProfile(cmd.Context())
	},
}
