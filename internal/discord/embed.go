package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hazadus/studio-relay/internal/carousel"
	"github.com/hazadus/studio-relay/internal/record"
	"github.com/hazadus/studio-relay/internal/utils"
)

// Идентификаторы кнопок карусели
const (
	BackButtonID = "relay:carousel:back"
	NextButtonID = "relay:carousel:next"
)

// Ограничения Discord на длину полей эмбеда
const (
	maxTitleLen       = 256
	maxDescriptionLen = 4096
	maxFieldValueLen  = 1024
	maxFooterLen      = 2048
)

// BriefingEmbed строит сводку по заявке
func BriefingEmbed(rec *record.Record, clientName string, trackCount int, now time.Time) *discordgo.MessageEmbed {
	description := fmt.Sprintf("**Client:** %s\n**Budget:** %s", clientName, rec.BudgetText())

	footer := "Project request"
	switch trackCount {
	case 0:
		footer += " • no reference tracks"
	case 1:
		footer += " • 1 reference track"
	default:
		footer += fmt.Sprintf(" • %d reference tracks", trackCount)
	}

	return &discordgo.MessageEmbed{
		Title:       utils.TruncateString("🎵 New Project: "+rec.DisplayTitle(), maxTitleLen),
		Description: utils.TruncateString(description, maxDescriptionLen),
		Color:       record.GenreColor(rec.Genre),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Genre", Value: utils.TruncateString(rec.GenreText(), maxFieldValueLen), Inline: true},
			{Name: "BPM", Value: rec.BPMText(), Inline: true},
			{Name: "Deadline", Value: utils.TruncateString(rec.DeadlineText(), maxFieldValueLen), Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: footer},
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

// BriefingComponents ссылка на админку, если она настроена
func BriefingComponents(dashboardURL string) []discordgo.MessageComponent {
	if dashboardURL == "" {
		return nil
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label: "Open Admin Dashboard",
				Style: discordgo.LinkButton,
				URL:   dashboardURL,
			},
		}},
	}
}

// CarouselEmbed строит эмбед текущей позиции карусели
func CarouselEmbed(d carousel.Display) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       utils.TruncateString(d.Title, maxTitleLen),
		Description: utils.TruncateString(d.Description, maxDescriptionLen),
		Color:       record.DefaultColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: utils.TruncateString(d.Footer, maxFooterLen)},
	}
	if d.Empty {
		return embed
	}

	embed.URL = d.LinkURL
	if d.MediaURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: d.MediaURL}
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Link", Value: utils.TruncateString(d.LinkURL, maxFieldValueLen)},
	}
	return embed
}

// CarouselComponents кнопки навигации; доступность пересчитывается из отображения
func CarouselComponents(d carousel.Display) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "◀ Back",
				Style:    discordgo.PrimaryButton,
				CustomID: BackButtonID,
				Disabled: !d.CanRetreat,
			},
			discordgo.Button{
				Label:    "Next ▶",
				Style:    discordgo.PrimaryButton,
				CustomID: NextButtonID,
				Disabled: !d.CanAdvance,
			},
		}},
	}
}
