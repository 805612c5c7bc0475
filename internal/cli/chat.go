package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"talentsparkle/internal/ai"
	"talentsparkle/internal/common"
	"talentsparkle/internal/dispatch"
	"talentsparkle/internal/errors"
	"talentsparkle/internal/seed"
	"talentsparkle/internal/types"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt...]",
	Short: "Send one message to the recruiting assistant",
	Long: `Send a single message to the recruiting assistant and print its reply.
The prompt is taken from the arguments, or from a voice recording given with
--audio. With --dispatch the actions the assistant chose are applied to the
configured store, the same way the web client applies them.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && chatAudioFile == "" {
			return fmt.Errorf("a prompt or --audio is required")
		}
		return resolveFormat(cmd, &chatConfig.OutputFormat)
	},
	RunE: runChat,
}

var (
	chatConfig    common.CommandConfig
	chatAudioFile string
	chatDispatch  bool
)

func init() {
	chatCmd.Flags().StringVarP(&chatConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	chatCmd.Flags().StringVar(&chatConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	chatCmd.Flags().StringVar(&chatAudioFile, "audio", "", "Voice recording to send instead of (or with) a prompt")
	chatCmd.Flags().BoolVar(&chatDispatch, "dispatch", false, "Apply the returned actions to the store")
	registerFormatCompletion(chatCmd)
}

// buildChatRequest turns the prompt words and optional recording into a request
func buildChatRequest(fp *common.FileProcessor, prompt []string, audioFile string) (types.ChatRequest, error) {
	var req types.ChatRequest
	if text := strings.TrimSpace(strings.Join(prompt, " ")); text != "" {
		req.Messages = []types.ChatMessage{{Role: "user", Content: text}}
	}
	if audioFile != "" {
		audio, mime, err := fp.ReadAudio(audioFile)
		if err != nil {
			return types.ChatRequest{}, err
		}
		req.AudioData = base64.StdEncoding.EncodeToString(audio)
		req.AudioMIMEType = mime
	}
	return req, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if err := cfg.ValidateChat(); err != nil {
		return err
	}
	svc, err := ai.NewService(ctx, cfg.GetChatConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer closeWithLog(svc.Close, logger)

	var dispatcher *dispatch.Dispatcher
	if chatDispatch {
		if cfg.Store.Backend == "memory" {
			logger.Warn("Dispatching into the memory backend, changes are lost on exit")
		}
		data, err := seed.Load()
		if err != nil {
			return err
		}
		st, err := common.OpenStore(ctx, cfg, data, common.Hooks{}, logger)
		if err != nil {
			return err
		}
		defer closeWithLog(st.Close, logger)

		dispatcher, err = common.NewDispatcher(ctx, cfg, st, data, common.Hooks{}, logger)
		if err != nil {
			return err
		}
	}

	createInput := func(fp *common.FileProcessor) (types.ChatRequest, error) {
		return buildChatRequest(fp, args, chatAudioFile)
	}

	logDetails := func(req types.ChatRequest, c common.CommandConfig) {
		logger.Info("Sending chat request",
			"messages", len(req.Messages),
			"audio", req.AudioData != "",
			"dispatch", chatDispatch,
			"output_format", c.OutputFormat)
	}

	chatOperation := func(ctx context.Context, req types.ChatRequest) (types.ChatResponse, *ai.TokenUsage, error) {
		return respondAndDispatch(ctx, svc, dispatcher, req)
	}

	err = common.RunAICommand(ctx, logger, chatConfig, cfg.App.MaxFileSize,
		createInput, chatOperation, logDetails)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	return nil
}

type responder interface {
	Respond(ctx context.Context, req types.ChatRequest) (types.ChatResponse, *ai.TokenUsage, error)
}

// respondAndDispatch runs one chat turn and, when d is set, applies its actions
func respondAndDispatch(ctx context.Context, svc responder, d *dispatch.Dispatcher, req types.ChatRequest) (types.ChatResponse, *ai.TokenUsage, error) {
	resp, usage, err := svc.Respond(ctx, req)
	if err != nil || d == nil || len(resp.FunctionResults) == 0 {
		return resp, usage, err
	}

	results, err := ai.ActionResults(resp)
	if err != nil {
		return resp, usage, errors.NewInternalError("DECODE_FAILED", "failed to decode function results", err)
	}
	resp.Outcomes = d.DispatchAll(ctx, results)
	return resp, usage, nil
}

func closeWithLog(closeFn func() error, logger *errors.Logger) {
	if err := closeFn(); err != nil {
		logger.Warn("Failed to release resource", "error", err)
	}
}
