// Command seed provisions a provider, a small service catalog, and a demo
// wallet so a fresh environment is usable immediately. It is idempotent: an
// existing provider with the same name is left untouched.
package main

import (
	"log"

	"github.com/shopspring/decimal"

	"smmpanel/internal/config"
	"smmpanel/internal/models"
	"smmpanel/internal/repositories"
	"smmpanel/internal/utils"
)

func main() {
	config.LoadEnv()

	apiKey := config.GetEnv("SEED_PROVIDER_API_KEY", "")
	if apiKey == "" {
		log.Fatal("SEED_PROVIDER_API_KEY must be set")
	}
	apiURL := config.GetEnv("SEED_PROVIDER_API_URL", "")
	if apiURL == "" {
		log.Fatal("SEED_PROVIDER_API_URL must be set")
	}
	providerName := config.GetEnv("SEED_PROVIDER_NAME", "primary-provider")

	db, err := repositories.Connect(repositories.DBConfig{
		Host:     config.GetEnv("DB_HOST", "localhost"),
		Port:     config.GetEnv("DB_PORT", "5432"),
		User:     config.GetEnv("DB_USER", "postgres"),
		Password: config.GetEnv("DB_PASSWORD", "postgres"),
		Name:     config.GetEnv("DB_NAME", "smmpanel"),
		SSLMode:  config.GetEnv("DB_SSLMODE", "disable"),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repositories.Close(db)

	if err := repositories.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	cipher, err := utils.NewCipher(
		config.GetEnv("CREDENTIAL_SECRET", ""),
		config.GetEnv("CREDENTIAL_SALT", "smmpanel-credentials"),
	)
	if err != nil {
		log.Fatalf("Failed to initialize credential cipher: %v", err)
	}

	var existing models.Provider
	if err := db.Where("name = ?", providerName).First(&existing).Error; err == nil {
		log.Printf("Provider %q already exists (id=%d), nothing to do", providerName, existing.ID)
		return
	}

	keyCipher, keyNonce, err := cipher.Encrypt(apiKey)
	if err != nil {
		log.Fatalf("Failed to encrypt provider API key: %v", err)
	}

	prov := &models.Provider{
		UserID:       uint(config.GetIntEnv("SEED_TENANT_ID", 1)),
		Name:         providerName,
		APIURL:       apiURL,
		APIKeyCipher: keyCipher,
		APIKeyNonce:  keyNonce,
		Status:       models.ProviderStatusActive,
	}
	if err := db.Create(prov).Error; err != nil {
		log.Fatalf("Failed to create provider: %v", err)
	}
	log.Printf("Created provider %q (id=%d)", prov.Name, prov.ID)

	services := []models.Service{
		{
			ProviderID:        prov.ID,
			ProviderServiceID: 101,
			Name:              "Instagram Followers",
			Category:          "instagram",
			Rate:              decimal.RequireFromString("0.40"),
			Margin:            decimal.RequireFromString("0.10"),
			MinQuantity:       10,
			MaxQuantity:       10000,
			SupportsCancel:    true,
			Status:            models.ServiceStatusActive,
		},
		{
			ProviderID:        prov.ID,
			ProviderServiceID: 102,
			Name:              "Instagram Likes",
			Category:          "instagram",
			Rate:              decimal.RequireFromString("0.15"),
			Margin:            decimal.RequireFromString("0.05"),
			MinQuantity:       20,
			MaxQuantity:       50000,
			SupportsRefill:    true,
			Status:            models.ServiceStatusActive,
		},
		{
			ProviderID:        prov.ID,
			ProviderServiceID: 205,
			Name:              "YouTube Views",
			Category:          "youtube",
			Rate:              decimal.RequireFromString("1.20"),
			Margin:            decimal.RequireFromString("0.30"),
			MinQuantity:       100,
			MaxQuantity:       1000000,
			SupportsDripFeed:  true,
			Status:            models.ServiceStatusActive,
		},
	}
	for i := range services {
		if err := db.Create(&services[i]).Error; err != nil {
			log.Fatalf("Failed to create service %q: %v", services[i].Name, err)
		}
		log.Printf("Created service %q (id=%d)", services[i].Name, services[i].ID)
	}

	demoUserID := uint(config.GetIntEnv("SEED_DEMO_USER_ID", 0))
	if demoUserID != 0 {
		wallet := &models.Wallet{UserID: demoUserID, Currency: "USD"}
		if err := db.Create(wallet).Error; err != nil {
			log.Printf("Demo wallet for user %d not created: %v", demoUserID, err)
		} else {
			log.Printf("Created demo wallet for user %d (id=%d)", demoUserID, wallet.ID)
		}
	}

	log.Println("Seed complete")
}
