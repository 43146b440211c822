package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"quiz-arena-service/internal/app"
	"quiz-arena-service/internal/config"
	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/infra/memory"
	"quiz-arena-service/internal/logger"
)

// NewCreateAdminCmd registers an admin account; admins cannot sign up over HTTP.
func NewCreateAdminCmd(configPath *string) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateAdmin(cmd.Context(), *configPath, app.RegisterInput{
				FullName: name,
				Email:    email,
				Password: password,
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func runCreateAdmin(ctx context.Context, configPath string, in app.RegisterInput) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := openPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if in.FullName == "" {
		in.FullName = "Administrator"
	}
	auth := app.NewAuthService(store, memory.NewSessionStore(), app.NewBcryptHasher(cfg.Auth.BcryptCost), 0)
	user, err := auth.CreateAdmin(ctx, in)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info("admin created", "id", user.ID, "email", user.Email)
	return nil
}

// questionFile is the YAML layout accepted by seed-questions.
type questionFile struct {
	Questions []struct {
		Text    string   `yaml:"text"`
		Options []string `yaml:"options"`
		Correct string   `yaml:"correct"`
	} `yaml:"questions"`
}

// NewSeedQuestionsCmd bulk-loads questions from a YAML file.
func NewSeedQuestionsCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-questions",
		Short: "Import questions from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeedQuestions(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "questions.yaml", "YAML file with a questions list")
	return cmd
}

func runSeedQuestions(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	questions, err := loadQuestionFile(file)
	if err != nil {
		return err
	}

	store, err := openPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	for i := range questions {
		if err := store.CreateQuestion(ctx, &questions[i]); err != nil {
			return fmt.Errorf("insert question %d: %w", i+1, err)
		}
	}
	log.Info("questions imported", "count", len(questions), "file", file)
	return nil
}

// loadQuestionFile parses and validates every entry before anything is written.
func loadQuestionFile(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var parsed questionFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]domain.Question, 0, len(parsed.Questions))
	for i, entry := range parsed.Questions {
		if len(entry.Options) != 4 {
			return nil, fmt.Errorf("question %d: expected 4 options, got %d", i+1, len(entry.Options))
		}
		q := domain.Question{
			QuestionText:  entry.Text,
			OptionA:       entry.Options[0],
			OptionB:       entry.Options[1],
			OptionC:       entry.Options[2],
			OptionD:       entry.Options[3],
			CorrectOption: entry.Correct,
		}
		if err := app.ValidateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}
