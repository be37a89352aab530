package generator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CLIClient shells out to a local chat CLI for development. The binary must
// accept --print and --system-prompt and read the user prompt from stdin.
type CLIClient struct {
	cliPath string
}

func NewCLIClient(cliPath string) *CLIClient {
	return &CLIClient{cliPath: cliPath}
}

func (c *CLIClient) args(systemPrompt string) []string {
	return []string{
		"--print",
		"--output-format", "text",
		"--system-prompt", systemPrompt,
		"--max-turns", "1",
	}
}

func (c *CLIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, c.cliPath, c.args(systemPrompt)...)
	cmd.Stdin = strings.NewReader(userPrompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("chat CLI error: %w\nstderr: %s", err, stderr.String())
	}

	reply := strings.TrimSpace(stdout.String())
	if reply == "" {
		return nil, fmt.Errorf("chat CLI returned empty response")
	}

	// The CLI does not report token usage.
	return &LLMResponse{Content: reply}, nil
}
