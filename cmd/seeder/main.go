package main

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/config"
	"github.com/vibely-app/vibely/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load config
	cfg := config.Load()

	// Force DB logging off to avoid noise
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to Database")

	// Create 10 users
	log.Println("🌱 Seeding 10 users...")

	users := make([]model.User, 0, 10)
	for i := 1; i <= 10; i++ {
		username := fmt.Sprintf("user%d", i)

		// Check if exists
		var existing model.User
		if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
			users = append(users, existing)
			continue
		}

		user := model.User{
			ID:       uuid.New(),
			Name:     fmt.Sprintf("User Number %d", i),
			Username: username,
			Avatar:   fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", username),
		}

		if err := db.Create(&user).Error; err != nil {
			log.Printf("❌ Failed to create user %s: %v", username, err)
			continue
		}
		log.Printf("✅ Created user: %s", username)
		users = append(users, user)
	}

	if len(users) >= 3 {
		seedGroup(db, users[:3])
	}
	if len(users) >= 2 {
		seedChannel(db, users[0], users[1:])
	}

	log.Println("🎉 Seeding completed!")
}

func seedGroup(db *gorm.DB, users []model.User) {
	admin := users[0]
	members := users[1:]

	var count int64
	db.Model(&model.Conversation{}).Where("title = ?", "General Chat").Count(&count)
	if count > 0 {
		return
	}

	group := model.Conversation{
		ID:     uuid.New(),
		Kind:   model.KindGroup,
		Title:  "General Chat",
		Avatar: "https://api.dicebear.com/7.x/initials/svg?seed=GC",
	}

	if err := db.Create(&group).Error; err != nil {
		log.Printf("❌ Failed to create group: %v", err)
		return
	}

	db.Create(&model.Participant{
		ConversationID: group.ID,
		UserID:         admin.ID,
		Role:           model.RoleAdmin,
	})
	for _, m := range members {
		db.Create(&model.Participant{
			ConversationID: group.ID,
			UserID:         m.ID,
			Role:           model.RoleMember,
		})
	}

	db.Create(&model.Message{
		ID:             uuid.New(),
		ConversationID: group.ID,
		SenderID:       admin.ID,
		Content:        "Всем привет! 🚀",
		Type:           model.MessageTypeRegular,
	})

	log.Printf("✅ Created demo group: 'General Chat' with %d members", len(users))
}

func seedChannel(db *gorm.DB, owner model.User, subscribers []model.User) {
	slug := "vibely-news"

	var count int64
	db.Model(&model.Conversation{}).Where("slug = ?", slug).Count(&count)
	if count > 0 {
		return
	}

	channel := model.Conversation{
		ID:      uuid.New(),
		Kind:    model.KindChannel,
		Title:   "Vibely News",
		Slug:    &slug,
		Avatar:  "https://api.dicebear.com/7.x/initials/svg?seed=VN",
		OwnerID: &owner.ID,
	}

	if err := db.Create(&channel).Error; err != nil {
		log.Printf("❌ Failed to create channel: %v", err)
		return
	}

	db.Create(&model.Participant{
		ConversationID: channel.ID,
		UserID:         owner.ID,
		Role:           model.RoleAdmin,
		Perms:          model.PermPost | model.PermEdit | model.PermDelete | model.PermInvite,
	})
	for _, s := range subscribers {
		db.Create(&model.Participant{
			ConversationID: channel.ID,
			UserID:         s.ID,
			Role:           model.RoleMember,
		})
	}

	db.Create(&model.Message{
		ID:             uuid.New(),
		ConversationID: channel.ID,
		SenderID:       owner.ID,
		Content:        "Канал запущен. Подписывайтесь!",
		Type:           model.MessageTypeRegular,
		IsAnonymous:    true,
	})

	log.Printf("✅ Created demo channel: '%s' with %d subscribers", slug, len(subscribers))
}
