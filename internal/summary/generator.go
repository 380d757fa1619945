package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator interacts with Google Gemini API using the official SDK
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiGenerator creates a new Gemini API client
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)

	return &GeminiGenerator{client: client, model: model}, nil
}

// Close closes the client connection
func (g *GeminiGenerator) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

// Generate sends a prompt to Gemini and returns the response text
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(text.String()), nil
}

// Prompt renders the inspection detail as a prompt for a findings summary.
func Prompt(d *domain.InspectionDetail) string {
	f := Collect(d)

	var b strings.Builder
	b.WriteString("You are a property manager writing the findings section of an inspection report.\n")
	b.WriteString("Write 3-6 plain sentences. Mention every failed item and every HIGH or CRITICAL issue. Do not invent details.\n\n")
	if d.Inspection != nil {
		fmt.Fprintf(&b, "Inspection type: %s\n", d.Inspection.Type)
	}
	fmt.Fprintf(&b, "Rooms: %d, photos: %d\n", f.Rooms, f.Photos)

	for _, r := range d.Rooms {
		fmt.Fprintf(&b, "\nRoom %q (%s)\n", r.Name, r.RoomType)
		if r.Notes != "" {
			fmt.Fprintf(&b, "  notes: %s\n", r.Notes)
		}
		for _, it := range r.Checklist {
			line := fmt.Sprintf("  - [%s] %s", it.Status, it.Description)
			if it.Kind == domain.KindIssue && it.Severity != "" {
				line += fmt.Sprintf(" (issue, %s)", it.Severity)
			}
			if it.Notes != "" {
				line += ": " + it.Notes
			}
			b.WriteString(line + "\n")
		}
	}

	if len(d.Issues) > 0 {
		b.WriteString("\nIssues:\n")
		for _, is := range d.Issues {
			fmt.Fprintf(&b, "  - [%s] %s", is.Severity, is.Title)
			if is.Description != "" {
				fmt.Fprintf(&b, ": %s", is.Description)
			}
			if room := d.FindRoom(is.RoomID); room != nil {
				fmt.Fprintf(&b, " (in %s)", room.Name)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
