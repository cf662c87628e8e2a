package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/atinyakov/mealledger/internal/client/prompt"
	"github.com/atinyakov/mealledger/internal/client/remote"
	"github.com/atinyakov/mealledger/internal/client/session"
	"github.com/atinyakov/mealledger/internal/client/shell"
	"github.com/atinyakov/mealledger/internal/goal"
	"github.com/atinyakov/mealledger/internal/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version   string
	buildDate string
)

var (
	serverURL   string
	sessionPath string
	logLevel    string
	dailyGoal   int

	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "mealledger",
	Short:         "Track daily meals, saved meals and calorie goals",
	Version:       fmt.Sprintf("%s (built %s)", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A")),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l := logger.New()
		if err := l.Init(logLevel); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		log = l.Log
		if sessionPath == "" {
			p, err := session.DefaultPath()
			if err != nil {
				return err
			}
			sessionPath = p
		}
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		login, password, err := askCredentials(cmd)
		if err != nil {
			return err
		}
		c := remote.New(serverURL, nil)
		if _, err := c.Register(cmd.Context(), login, password); err != nil {
			return fmt.Errorf("register: %w", err)
		}
		return signIn(cmd, c, login, password)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		login, password, err := askCredentials(cmd)
		if err != nil {
			return err
		}
		return signIn(cmd, remote.New(serverURL, nil), login, password)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sessions().Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive meal log",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := sessions().Load()
		if errors.Is(err, session.ErrNoSession) {
			return errors.New("not logged in, run 'mealledger login' first")
		}
		if err != nil {
			return err
		}
		base := sess.BaseURL
		if cmd.Flags().Changed("server") || base == "" {
			base = serverURL
		}
		c := remote.New(base, nil)
		c.SetSession(sess.UserID, sess.Token)

		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s. Type 'help' for commands.\n", sess.Login)
		sh := shell.New(c, sess.UserID, cmd.InOrStdin(), cmd.OutOrStdout(), nil, log)
		sh.SetGoal(dailyGoal)
		err = sh.Run(cmd.Context())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

var goalFlags struct {
	sex, weight, height, age, activity, goal string
}

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Calculate a daily calorie goal without logging in",
	RunE: func(cmd *cobra.Command, args []string) error {
		g := goalFlags
		in, err := goal.ParseInput(g.sex, g.weight, g.height, g.age, g.activity, g.goal)
		if err != nil {
			return err
		}
		bmr, err := goal.BMR(in.Sex, in.WeightKg, in.HeightCm, in.AgeYears)
		if err != nil {
			return err
		}
		tdee, err := goal.TDEE(bmr, in.Activity)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "BMR:  %.0f kcal\n", bmr)
		fmt.Fprintf(out, "TDEE: %.0f kcal\n", tdee)
		fmt.Fprintf(out, "Goal: %d kcal\n", goal.GoalCalories(tdee, in.Goal))
		return nil
	},
}

func init() {
	def := os.Getenv("MEALLEDGER_SERVER")
	if def == "" {
		def = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", def, "server base URL (or set MEALLEDGER_SERVER)")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", "", "session file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	shellCmd.Flags().IntVar(&dailyGoal, "goal-calories", goal.DefaultDailyCalories, "daily calorie goal shown by today")

	f := goalCmd.Flags()
	f.StringVar(&goalFlags.sex, "sex", "", "male or female")
	f.StringVar(&goalFlags.weight, "weight", "", "weight in kg")
	f.StringVar(&goalFlags.height, "height", "", "height in cm")
	f.StringVar(&goalFlags.age, "age", "", "age in years")
	f.StringVar(&goalFlags.activity, "activity", string(goal.Sedentary), "sedentary, active or very_active")
	f.StringVar(&goalFlags.goal, "goal", string(goal.Maintain), "lose, maintain or gain")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, shellCmd, goalCmd)
}

func sessions() *session.Store {
	return session.NewStore(afero.NewOsFs(), sessionPath)
}

func askCredentials(cmd *cobra.Command) (string, string, error) {
	p := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())
	login, err := p.Line("Login: ")
	if err != nil {
		return "", "", err
	}
	password, err := p.Line("Password: ")
	if err != nil {
		return "", "", err
	}
	return login, password, nil
}

func signIn(cmd *cobra.Command, c *remote.Client, login, password string) error {
	token, userID, err := c.Login(cmd.Context(), login, password)
	if err != nil {
		if errors.Is(err, remote.ErrUnauthorized) {
			return errors.New("wrong login or password")
		}
		return fmt.Errorf("login: %w", err)
	}
	sess := &session.Session{BaseURL: serverURL, Login: login, UserID: userID, Token: token}
	if err := sessions().Save(sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	log.Debug("session saved", zap.String("path", sessionPath))
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", login)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

