package seeders

import (
	"attendtrack_go/database"
	"attendtrack_go/models"
	"attendtrack_go/utils"
	"log"
)

// SeedAll runs every seeder. Safe to call repeatedly: each seeder
// checks for existing rows before inserting.
func SeedAll() {
	SeedOwner()
	SeedDemoData()
}

// SeedOwner creates the initial owner account if no users exist.
func SeedOwner() {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	hashed, err := utils.HashPassword("admin123")
	if err != nil {
		log.Printf("Seeder: failed to hash owner password: %v", err)
		return
	}

	owner := models.User{
		Username: "owner",
		Password: hashed,
		Role:     "owner",
		Status:   "active",
	}
	if err := database.DB.Create(&owner).Error; err != nil {
		log.Printf("Seeder: failed to create owner account: %v", err)
		return
	}
	log.Println("Seeder: created default owner account (username=owner)")
}

// SeedDemoData inserts a small demo dataset for development environments.
func SeedDemoData() {
	var count int64
	database.DB.Model(&models.Room{}).Count(&count)
	if count > 0 {
		return
	}

	rooms := []models.Room{
		{RoomName: "Room 101", ESP32ID: "esp32-101", Capacity: 30, Active: true},
		{RoomName: "Room 102", ESP32ID: "esp32-102", Capacity: 30, Active: true},
	}
	for i := range rooms {
		if err := database.DB.Create(&rooms[i]).Error; err != nil {
			log.Printf("Seeder: failed to create room %s: %v", rooms[i].RoomName, err)
		}
	}

	groups := []models.Group{
		{Name: "G1", Level: "junior", Active: true},
		{Name: "G2", Level: "senior", Active: true},
	}
	for i := range groups {
		if err := database.DB.Create(&groups[i]).Error; err != nil {
			log.Printf("Seeder: failed to create group %s: %v", groups[i].Name, err)
		}
	}

	subjects := []models.Subject{
		{Name: "Mathematics", Code: "MATH"},
		{Name: "Physics", Code: "PHYS"},
	}
	for i := range subjects {
		if err := database.DB.Create(&subjects[i]).Error; err != nil {
			log.Printf("Seeder: failed to create subject %s: %v", subjects[i].Code, err)
		}
	}

	if len(rooms) < 2 || len(groups) < 2 || len(subjects) < 2 {
		return
	}

	entries := []models.ScheduleEntry{
		{RoomID: rooms[0].ID, Day: models.WeekdayMon, StartTime: "08:00", EndTime: "10:00", GroupID: groups[0].ID, SubjectID: subjects[0].ID},
		{RoomID: rooms[0].ID, Day: models.WeekdayMon, StartTime: "10:00", EndTime: "12:00", GroupID: groups[1].ID, SubjectID: subjects[1].ID},
		{RoomID: rooms[1].ID, Day: models.WeekdayMon, StartTime: "08:00", EndTime: "10:00", GroupID: groups[1].ID, SubjectID: subjects[0].ID},
	}
	for i := range entries {
		if err := database.DB.Create(&entries[i]).Error; err != nil {
			log.Printf("Seeder: failed to create schedule entry: %v", err)
		}
	}

	log.Println("Seeder: demo data created")
}
