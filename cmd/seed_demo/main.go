package main

import (
	"context"
	"fmt"
	"log"

	"github.com/tagwatch/tagwatchgo/internal/config"
	"github.com/tagwatch/tagwatchgo/internal/database"
	"github.com/tagwatch/tagwatchgo/internal/models"
	"github.com/tagwatch/tagwatchgo/internal/registry"
)

func main() {
	fmt.Println("🌱 tagwatch Demo Data Seeder")

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.Device{},
		&models.Reader{},
		&models.DeviceLocation{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	// Check if data already exists
	var deviceCount int64
	db.Model(&models.Device{}).Count(&deviceCount)
	if deviceCount > 0 {
		fmt.Printf("⚠️  Database already has %d devices. Clear it first? (y/N): ", deviceCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}
		db.Exec("DELETE FROM device_locations")
		db.Exec("DELETE FROM devices")
		db.Exec("DELETE FROM readers")
	}

	reg := registry.New(db)
	ctx := context.Background()

	readers := []models.Reader{
		{Name: "Warehouse Gate", Location: "Dock 1"},
		{Name: "Lab Entrance", Location: "Building B, floor 2"},
		{Name: "Loading Bay", Location: "Dock 3"},
	}
	for i := range readers {
		if err := reg.CreateReader(ctx, &readers[i]); err != nil {
			log.Fatalf("❌ Failed to seed reader %q: %v", readers[i].Name, err)
		}
		fmt.Printf("✅ Reader: %s (%s)\n", readers[i].Name, readers[i].ID)
	}

	devices := []models.Device{
		{TagID: "E200-3412-0001", Name: "Pallet Jack", Description: "Electric pallet jack, bay 3"},
		{TagID: "E200-3412-0002", Name: "Oscilloscope", Description: "Keysight DSOX1204G"},
		{TagID: "E200-3412-0003", Name: "Toolbox Red", Description: "Maintenance crew toolbox"},
		{TagID: "E200-3412-0004", Name: "Forklift Key Fob", Description: "Spare key fob for forklift 2"},
	}
	for i := range devices {
		if err := reg.CreateDevice(ctx, &devices[i]); err != nil {
			log.Fatalf("❌ Failed to seed device %q: %v", devices[i].Name, err)
		}
		fmt.Printf("✅ Device: %s [%s] (%s)\n", devices[i].Name, devices[i].TagID, devices[i].ID)
	}

	fmt.Println()
	fmt.Println("🎉 Demo data ready. Try:")
	fmt.Printf("   curl -X POST localhost:%s/api/detections -d '{\"tagId\":\"%s\",\"readerId\":\"%s\"}'\n",
		cfg.Port, devices[0].TagID, readers[0].ID)
}
