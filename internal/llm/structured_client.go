// ABOUTME: Decision oracle using the OpenAI Responses API with a strict JSON schema
// ABOUTME: The model returns {"continues": bool}, rendered back as "true" or "false"
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harper/topicseg/internal/models"
	"github.com/harper/topicseg/internal/util"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const structuredInstructions = `You decide whether a sentence continues the text that precedes it. Answer with the JSON object only.`

// ContinuationVerdict is the structured answer to a continuation question.
type ContinuationVerdict struct {
	Continues bool `json:"continues" jsonschema:"required,description=true if the sentence continues the given context"`
}

var continuationSchema = GenerateSchema[ContinuationVerdict]()

// StructuredClient asks continuation questions with schema-constrained output
type StructuredClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	backoff util.Backoff
}

// NewStructuredClient creates a StructuredClient from config
func NewStructuredClient(config *ClientConfig) (*StructuredClient, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(config.BaseURL, "/")+"/"))
	}
	client := openai.NewClient(opts...)
	return &StructuredClient{
		client:  &client,
		model:   config.ChatModel,
		timeout: config.timeout(),
		backoff: config.backoff(),
	}, nil
}

// Invoke asks the model for a verdict and returns "true" or "false".
func (c *StructuredClient) Invoke(ctx context.Context, prompt string) (string, error) {
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "ContinuationVerdict",
			Schema:      continuationSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Whether the sentence continues the context"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(64),
		Instructions:    openai.String(structuredInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	var verdict ContinuationVerdict
	err := c.backoff.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.Responses.New(ctx, params)
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) && isPermanentStatus(apiErr.StatusCode) {
				return util.Permanent(err)
			}
			return err
		}
		if err := decodeModelJSON(resp.OutputText(), &verdict); err != nil {
			return util.Permanent(fmt.Errorf("decode verdict: %w", err))
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: structured verdict: %w", models.ErrOracle, err)
	}
	return strconv.FormatBool(verdict.Continues), nil
}

// GenerateSchema reflects T into an OpenAI strict-mode JSON schema.
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	b, err := reflector.Reflect(v).MarshalJSON()
	if err != nil {
		panic(err)
	}
	var schema map[string]any
	if err := json.Unmarshal(b, &schema); err != nil {
		panic(err)
	}
	enforceStrict(schema)
	return schema
}

// enforceStrict closes every object and marks all its properties required
func enforceStrict(schema map[string]any) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if m, ok := p.(map[string]any); ok {
				enforceStrict(m)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		enforceStrict(items)
	}
}

// decodeModelJSON unmarshals the first JSON object found in s
func decodeModelJSON(s string, out any) error {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}
	return json.Unmarshal([]byte(s[start:end+1]), out)
}
