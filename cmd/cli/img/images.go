// Package img generates persona avatars with the OpenAI image API.
package img

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"os"
	"strconv"

	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"github.com/zheruizz/another.ai-app/cmd/cli/services"
	"github.com/zheruizz/another.ai-app/internal/errors"
	"github.com/zheruizz/another.ai-app/internal/models"
	"github.com/zheruizz/another.ai-app/internal/secrets"
	"github.com/zheruizz/another.ai-app/internal/survey"
)

var Group = &cobra.Group{
	ID:    "img",
	Title: "Image operations",
}

func init() {
	Avatar.Flags().String("out", "./avatar.png", "path to generated image file")
}

// AvatarPrompt describes the portrait to draw for persona.
func AvatarPrompt(persona models.Persona) string {
	return "A friendly flat-style square portrait avatar, no text, of this customer persona:\n" +
		survey.PersonaText(persona)
}

var Avatar = &cobra.Command{
	Use:     "avatar [personaID]",
	GroupID: "img",
	Short:   "Generate persona avatar",
	Long:    `Generates a PNG avatar for a persona with DALL-E`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		personaID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return errors.Wrap(err, "parse persona id")
		}
		outPath, err := cmd.Flags().GetString("out")
		if err != nil {
			return errors.Wrap(err, "invalid out flag")
		}

		ctx := cmd.Context()
		svc, cfg, err := services.Open(ctx, services.Logger())
		if err != nil {
			return err
		}
		defer func() {
			_ = svc.Close()
		}()

		persona, err := svc.Store.GetPersona(ctx, personaID)
		if err != nil {
			return errors.Wrap(err, "get persona")
		}
		key, err := secrets.NewResolver().APIKey(ctx, secrets.Source{
			SecretName: cfg.OpenAISecretName,
			Region:     cfg.OpenAISecretRegion,
			Field:      "",
			EnvValue:   cfg.OpenAIAPIKey,
		})
		if err != nil {
			return errors.Wrap(err, "resolve openai key")
		}
		config := openai.DefaultConfig(key)
		if cfg.OpenAIBaseURL != "" {
			config.BaseURL = cfg.OpenAIBaseURL
		}

		if err = generate(ctx, openai.NewClientWithConfig(config), AvatarPrompt(*persona), outPath); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "The image was saved as %s\n", outPath)
		return nil
	},
}

func generate(ctx context.Context, c *openai.Client, prompt string, outPath string) error {
	request := openai.ImageRequest{ //nolint:exhaustruct // defaults are fine
		Model:          openai.CreateImageModelDallE3,
		Prompt:         prompt,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	}

	response, err := c.CreateImage(ctx, request)
	if err != nil {
		return errors.Wrap(err, "create image")
	}
	if len(response.Data) == 0 {
		return errors.New("image response without data")
	}

	imgBytes, err := base64.StdEncoding.DecodeString(response.Data[0].B64JSON)
	if err != nil {
		return errors.Wrap(err, "base64 decode")
	}
	imgData, err := png.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return errors.Wrap(err, "png decode")
	}

	file, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, "create file")
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	if err = png.Encode(file, imgData); err != nil {
		return errors.Wrap(err, "png encode")
	}
	return nil
}
