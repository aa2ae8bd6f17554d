package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/noah-isme/backend-catalogue/internal/auth"
	"github.com/noah-isme/backend-catalogue/internal/pricing"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	catIDs := seedCategories(db)
	seedProducts(db, catIDs)
	seedAgents(db)
	seedSettings(db)
	seedAdmin(db)

	log.Println("Seeding completed successfully!")
}

func seedCategories(db *sql.DB) map[string]string {
	categories := []struct {
		Name        string
		Description string
	}{
		{"Électronique", "Ordinateurs, téléphones et accessoires"},
		{"Électroménager", "Équipement pour la maison"},
		{"Énergie", "Groupes électrogènes et panneaux solaires"},
		{"Mobilier", "Meubles et décoration"},
	}

	fmt.Println("Seeding Categories...")
	ids := make(map[string]string)
	for _, c := range categories {
		var id string
		err := db.QueryRow(`
			INSERT INTO categories (name, description)
			VALUES ($1, $2)
			RETURNING id;
		`, c.Name, c.Description).Scan(&id)
		if err != nil {
			log.Printf("Failed to seed category %s: %v", c.Name, err)
			continue
		}
		ids[c.Name] = id
	}
	return ids
}

func seedProducts(db *sql.DB, catIDs map[string]string) {
	type product struct {
		Name     string
		Short    string
		Category string
		Images   []string
		Tiers    []pricing.Tier
		Costs    pricing.CostDetails
	}

	products := []product{
		{
			Name:     "Ordinateur Portable Pro 15",
			Short:    "PC portable 15 pouces, 16 Go RAM",
			Category: "Électronique",
			Images:   []string{"/media/seed/laptop.jpg"},
			Tiers: []pricing.Tier{
				{MinQty: 1, MaxQty: 4, Price: 45000000},
				{MinQty: 5, MaxQty: 9, Price: 42500000},
				{MinQty: 10, MaxQty: pricing.NoMax, Price: 40000000},
			},
			Costs: pricing.CostDetails{Taxes: 4500000, Transport: 1500000, Dedouanement: 2000000},
		},
		{
			Name:     "Smartphone X20",
			Short:    "Écran 6.5 pouces, double SIM",
			Category: "Électronique",
			Images:   []string{"/media/seed/phone.jpg"},
			Tiers: []pricing.Tier{
				{MinQty: 1, MaxQty: 9, Price: 12000000},
				{MinQty: 10, MaxQty: pricing.NoMax, Price: 10500000},
			},
			Costs: pricing.CostDetails{Taxes: 1200000, Transport: 500000, Dedouanement: 800000},
		},
		{
			Name:     "Groupe Électrogène 5kVA",
			Short:    "Démarrage électrique, réservoir 25 L",
			Category: "Énergie",
			Images:   []string{"/media/seed/generator.jpg"},
			Tiers: []pricing.Tier{
				{MinQty: 1, MaxQty: pricing.NoMax, Price: 65000000},
			},
			Costs: pricing.CostDetails{Taxes: 6500000, Transport: 4000000, Dedouanement: 3500000},
		},
		{
			Name:     "Réfrigérateur 350 L",
			Short:    "Double porte, froid ventilé",
			Category: "Électroménager",
			Images:   []string{"/media/seed/fridge.jpg"},
			Tiers: []pricing.Tier{
				{MinQty: 1, MaxQty: 2, Price: 38000000},
				{MinQty: 3, MaxQty: pricing.NoMax, Price: 35000000},
			},
			Costs: pricing.CostDetails{Taxes: 3800000, Transport: 2500000, Dedouanement: 1800000},
		},
		{
			Name:     "Canapé d'angle 6 places",
			Short:    "Tissu déhoussable, coloris gris",
			Category: "Mobilier",
			Images:   []string{"/media/seed/sofa.jpg"},
			Tiers: []pricing.Tier{
				{MinQty: 1, MaxQty: pricing.NoMax, Price: 52000000},
			},
			Costs: pricing.CostDetails{Taxes: 5200000, Transport: 6000000, Dedouanement: 2600000},
		},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		tiersJSON, err := json.Marshal(p.Tiers)
		if err != nil {
			log.Printf("Failed to marshal tiers for %s: %v", p.Name, err)
			continue
		}
		costsJSON, err := json.Marshal(p.Costs)
		if err != nil {
			log.Printf("Failed to marshal costs for %s: %v", p.Name, err)
			continue
		}
		imagesJSON, err := json.Marshal(p.Images)
		if err != nil {
			log.Printf("Failed to marshal images for %s: %v", p.Name, err)
			continue
		}
		var categoryID any
		if id, ok := catIDs[p.Category]; ok {
			categoryID = id
		}
		_, err = db.Exec(`
			INSERT INTO products (name, short_description, category_id, images, pricing, cost_details)
			VALUES ($1, $2, $3, $4, $5, $6);
		`, p.Name, p.Short, categoryID, imagesJSON, tiersJSON, costsJSON)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
		}
	}
}

func seedAgents(db *sql.DB) {
	agents := []struct {
		Name   string
		Number string
		Slug   string
	}{
		{"Aminata Koné", "+2250700000001", "aminata"},
		{"Moussa Diabaté", "+2250700000002", "moussa"},
		{"Fatou Ndiaye", "+221770000003", "fatou"},
	}

	fmt.Println("Seeding Agents...")
	for _, a := range agents {
		_, err := db.Exec(`
			INSERT INTO agents (name, whatsapp_number, slug)
			VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, whatsapp_number = EXCLUDED.whatsapp_number;
		`, a.Name, a.Number, a.Slug)
		if err != nil {
			log.Printf("Failed to seed agent %s: %v", a.Slug, err)
		}
	}
}

func seedSettings(db *sql.DB) {
	settings := map[string]string{
		"site_logo":     "/static/logo.png",
		"site_whatsapp": "+2250709999999",
	}

	fmt.Println("Seeding Settings...")
	for key, value := range settings {
		_, err := db.Exec(`
			INSERT INTO settings (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now();
		`, key, value)
		if err != nil {
			log.Printf("Failed to seed setting %s: %v", key, err)
		}
	}
}

func seedAdmin(db *sql.DB) {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
		log.Println("SEED_ADMIN_PASSWORD not set, using the default password")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	fmt.Println("Seeding Admin...")
	_, err = db.Exec(`
		INSERT INTO admins (email, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING;
	`, email, hash)
	if err != nil {
		log.Printf("Failed to seed admin %s: %v", email, err)
	}
}
