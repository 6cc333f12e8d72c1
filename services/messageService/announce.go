package messageService

import (
	"fmt"

	"pickemEngine/models"
	"pickemEngine/services/common"

	"github.com/bwmarrin/discordgo"
	"gorm.io/gorm"
)

// BuildSettlementEmbed creates a consistent embed for game settlement
// announcements.
func BuildSettlementEmbed(game *models.Game, picksSettled, anonSettled int) *discordgo.MessageEmbed {
	score := "—"
	if game.HomeScore != nil && game.AwayScore != nil {
		score = fmt.Sprintf("%d–%d", *game.HomeScore, *game.AwayScore)
	}

	winner := "_pending_"
	if game.WinnerATS != nil {
		winner = *game.WinnerATS
	}

	bonus := "0"
	if game.MarginBonus != nil {
		bonus = fmt.Sprintf("%d", *game.MarginBonus)
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏁 Final: %s vs %s", game.AwayTeam, game.HomeTeam),
		Description: fmt.Sprintf("Spread %+.1f (home)", game.Spread),
		Color:       0x57F287, // green-ish
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Score",
				Value:  score,
				Inline: true,
			},
			{
				Name:   "Covered",
				Value:  winner,
				Inline: true,
			},
			{
				Name:   "Margin Bonus",
				Value:  bonus,
				Inline: true,
			},
			{
				Name:  "Picks Settled",
				Value: fmt.Sprintf("%d (+%d anonymous)", picksSettled, anonSettled),
			},
		},
	}
}

// AnnounceSettlement posts the settlement embed for a game. A nil session
// or empty channel id is a silent no-op so the engine runs fine without a
// configured announcer.
func AnnounceSettlement(s *discordgo.Session, db *gorm.DB, channelID string, gameID uint) {
	if s == nil || channelID == "" {
		return
	}

	var game models.Game
	if err := db.First(&game, gameID).Error; err != nil {
		common.LogError(db, "messageService", fmt.Errorf("loading game %d for announcement: %v", gameID, err))
		return
	}

	var event models.SettlementEvent
	picks, anon := 0, 0
	if err := db.Where("game_id = ?", gameID).Order("id DESC").First(&event).Error; err == nil {
		picks, anon = event.PicksSettled, event.AnonSettled
	}

	embed := BuildSettlementEmbed(&game, picks, anon)
	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		common.LogError(db, "messageService", fmt.Errorf("announcing game %d: %v", gameID, err))
	}
}
