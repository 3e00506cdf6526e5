package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/courseflix/courseflix-api/internal/config"
	"github.com/courseflix/courseflix-api/internal/database"
	"github.com/courseflix/courseflix-api/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML document loaded by the seed command.
type seedFile struct {
	Courses []seedCourse `yaml:"courses"`
	Users   []seedUser   `yaml:"users"`
}

type seedCourse struct {
	ID               string   `yaml:"id"`
	Title            string   `yaml:"title"`
	Description      string   `yaml:"description"`
	ShortDescription string   `yaml:"short_description"`
	Provider         string   `yaml:"provider"`
	Hours            float64  `yaml:"hours"`
	Weeks            float64  `yaml:"weeks"`
	Difficulty       string   `yaml:"difficulty"`
	Format           string   `yaml:"format"`
	Topics           []string `yaml:"topics"`
	Skills           []string `yaml:"skills"`
	Prerequisites    []string `yaml:"prerequisites"`
	IsFree           bool     `yaml:"is_free"`
	Price            float64  `yaml:"price"`
	Currency         string   `yaml:"currency"`
	HasCertificate   bool     `yaml:"has_certificate"`
	URL              string   `yaml:"url"`
	RatingAverage    float64  `yaml:"rating_average"`
	RatingCount      int      `yaml:"rating_count"`
	Views            int      `yaml:"views"`
	Enrollments      int      `yaml:"enrollments"`
	Completions      int      `yaml:"completions"`
}

type seedUser struct {
	ID             string           `yaml:"id"`
	Name           string           `yaml:"name"`
	Email          string           `yaml:"email"`
	Interests      []string         `yaml:"interests"`
	LearningStyles []string         `yaml:"learning_styles"`
	HoursPerWeek   float64          `yaml:"hours_per_week"`
	Enrollments    []seedEnrollment `yaml:"enrollments"`
}

type seedEnrollment struct {
	CourseID  string  `yaml:"course_id"`
	Progress  float64 `yaml:"progress"`
	Completed bool    `yaml:"completed"`
}

// NewSeedCmd creates the seed command
func NewSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the course catalog from a YAML file",
		Long:  "Load courses and demo users from a YAML file into the database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}

			var seed seedFile
			if err := yaml.Unmarshal(data, &seed); err != nil {
				return fmt.Errorf("parse seed file: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer func() { _ = db.Close() }()

			ctx := context.Background()
			courseRepo := database.NewCourseRepository(db)
			userRepo := database.NewUserRepository(db)

			for _, sc := range seed.Courses {
				course := sc.toModel()
				if err := courseRepo.Create(ctx, course); err != nil {
					return fmt.Errorf("create course %q: %w", course.ID, err)
				}
			}
			fmt.Printf("Seeded %d courses.\n", len(seed.Courses))

			for _, su := range seed.Users {
				user := su.toModel()
				if err := userRepo.Create(ctx, user); err != nil {
					return fmt.Errorf("create user %q: %w", user.ID, err)
				}
				for _, se := range su.Enrollments {
					enrollment := models.Enrollment{
						CourseID:     se.CourseID,
						EnrolledDate: time.Now().UTC(),
						Progress:     se.Progress,
						LastAccessed: time.Now().UTC(),
						Completed:    se.Completed,
					}
					if err := userRepo.UpsertEnrollment(ctx, user.ID, enrollment); err != nil {
						return fmt.Errorf("enroll user %q in %q: %w", user.ID, se.CourseID, err)
					}
				}
			}
			fmt.Printf("Seeded %d users.\n", len(seed.Users))

			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "seed.yaml", "Path to the seed YAML file")
	return cmd
}

func (sc seedCourse) toModel() *models.Course {
	now := time.Now().UTC()
	currency := sc.Currency
	if currency == "" {
		currency = "USD"
	}
	return &models.Course{
		ID:               sc.ID,
		Title:            sc.Title,
		Slug:             models.Slugify(sc.Title),
		Description:      sc.Description,
		ShortDescription: sc.ShortDescription,
		Provider:         models.Provider{Name: sc.Provider},
		Duration:         models.Duration{Hours: sc.Hours, Weeks: sc.Weeks},
		Difficulty:       models.Difficulty(sc.Difficulty),
		Format:           models.CourseFormat(sc.Format),
		Topics:           sc.Topics,
		Skills:           sc.Skills,
		Prerequisites:    sc.Prerequisites,
		Pricing: models.Pricing{
			IsFree:         sc.IsFree,
			Price:          sc.Price,
			Currency:       currency,
			HasCertificate: sc.HasCertificate,
		},
		URL:     sc.URL,
		Ratings: models.Ratings{Average: sc.RatingAverage, Count: sc.RatingCount},
		Popularity: models.Popularity{
			Views:       sc.Views,
			Enrollments: sc.Enrollments,
			Completions: sc.Completions,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (su seedUser) toModel() *models.User {
	return &models.User{
		ID:    su.ID,
		Name:  su.Name,
		Email: su.Email,
		LearningPreferences: models.LearningPreferences{
			Interests:      su.Interests,
			LearningStyles: su.LearningStyles,
			TimeCommitment: models.TimeCommitment{HoursPerWeek: su.HoursPerWeek},
		},
		CreatedAt: time.Now().UTC(),
	}
}
