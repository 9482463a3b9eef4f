package main

import (
	"github.com/savoryhq/savory-backend/config"
	"github.com/savoryhq/savory-backend/internal/app/model"
	"github.com/savoryhq/savory-backend/internal/app/repository"
	"github.com/savoryhq/savory-backend/internal/db"
	"github.com/savoryhq/savory-backend/pkg/logger"
	"github.com/savoryhq/savory-backend/pkg/util"
)

// Loads a small set of sample users, stores and reviews for local
// development.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Initialize(logger.Config{
		Level:       "info",
		Format:      "console",
		EnableColor: true,
	})

	if err := db.Initialize(cfg); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db.GetDB())
	storeRepo := repository.NewStoreRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())

	users := []struct {
		name, email, password string
	}{
		{"Ava Reyes", "ava@example.com", "password123"},
		{"Noah Park", "noah@example.com", "password123"},
		{"Mia Chen", "mia@example.com", "password123"},
	}

	var userIDs []uint
	for _, u := range users {
		hash, err := util.HashPassword(u.password)
		if err != nil {
			logger.Fatal("Failed to hash password", err)
		}
		user := &model.User{Name: u.name, Email: u.email, Password: hash}
		if err := userRepo.Create(user); err != nil {
			logger.Warn("Skipping user, probably seeded already", map[string]interface{}{
				"email": u.email,
				"error": err.Error(),
			})
			continue
		}
		userIDs = append(userIDs, user.ID)
	}

	if len(userIDs) == 0 {
		logger.Info("No new users created, nothing to seed", nil)
		return
	}

	stores := []model.Store{
		{
			Name:        "The Crusty Crumb",
			Description: "Sourdough and pastries baked every morning.",
			Tags:        model.StringArray{"Bakery", "Family Friendly"},
			Location: model.Location{
				Type:        "Point",
				Coordinates: []float64{-79.3832, 43.6532},
				Address:     "104 Queen St W, Toronto",
			},
			AuthorID: userIDs[0],
		},
		{
			Name:        "Ember & Oak",
			Description: "Wood fired grill with a long whisky list.",
			Tags:        model.StringArray{"Restaurant", "Licensed"},
			Location: model.Location{
				Type:        "Point",
				Coordinates: []float64{-79.3902, 43.6488},
				Address:     "55 King St W, Toronto",
			},
			AuthorID: userIDs[0],
		},
		{
			Name:        "Morning Ritual",
			Description: "Single origin espresso and slow brews.",
			Tags:        model.StringArray{"Cafe", "Wifi", "Open Late"},
			Location: model.Location{
				Type:        "Point",
				Coordinates: []float64{-79.4001, 43.6465},
				Address:     "802 Dundas St W, Toronto",
			},
			AuthorID: userIDs[len(userIDs)-1],
		},
	}

	for i := range stores {
		if err := storeRepo.Create(&stores[i]); err != nil {
			logger.Error("Failed to seed store", err, map[string]interface{}{
				"name": stores[i].Name,
			})
			continue
		}

		review := &model.Review{
			StoreID:  stores[i].ID,
			AuthorID: userIDs[i%len(userIDs)],
			Text:     "Solid spot, would come back.",
			Rating:   3 + i%3,
		}
		if err := reviewRepo.Create(review); err != nil {
			logger.Error("Failed to seed review", err, nil)
		}
	}

	logger.Info("Seed complete", map[string]interface{}{
		"users":  len(userIDs),
		"stores": len(stores),
	})
}
