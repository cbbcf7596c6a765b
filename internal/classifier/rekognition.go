package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// RekognitionAPI is the subset of the Rekognition client used here
type RekognitionAPI interface {
	DetectModerationLabels(ctx context.Context, params *rekognition.DetectModerationLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error)
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionConfig holds configuration for the Rekognition classifier
type RekognitionConfig struct {
	// Region is the AWS region (e.g., "us-east-1")
	Region string
	// MinConfidence filters detector output, in percent
	MinConfidence float32
	// MaxLabels bounds the generic labels requested per image
	MaxLabels int32
}

// Rekognition classifies images with AWS Rekognition
type Rekognition struct {
	client        RekognitionAPI
	minConfidence float32
	maxLabels     int32
}

// moderationCategories maps Rekognition moderation label names (top level or
// parent) to categories. Matching is by lowercase substring.
var moderationCategories = []struct {
	keyword  string
	category string
}{
	{"nudity", CategoryNudity},
	{"explicit", CategoryNudity},
	{"suggestive", CategoryNudity},
	{"violence", CategoryViolence},
	{"visually disturbing", CategoryViolence},
	{"weapon", CategoryViolence},
	{"hate symbol", CategoryHateSymbols},
	{"self harm", CategorySelfHarm},
	{"self-harm", CategorySelfHarm},
	{"self injury", CategorySelfHarm},
	{"extremis", CategoryExtremistContent},
}

// NewRekognition creates a Rekognition classifier using the default AWS
// credentials chain (environment, shared config, IAM role)
func NewRekognition(ctx context.Context, cfg RekognitionConfig) (*Rekognition, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("AWS region is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewRekognitionWithClient(rekognition.NewFromConfig(awsCfg), cfg), nil
}

// NewRekognitionWithClient wraps an existing client
func NewRekognitionWithClient(client RekognitionAPI, cfg RekognitionConfig) *Rekognition {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 50
	}
	if cfg.MaxLabels <= 0 {
		cfg.MaxLabels = 20
	}
	return &Rekognition{
		client:        client,
		minConfidence: cfg.MinConfidence,
		maxLabels:     cfg.MaxLabels,
	}
}

// Classify implements Classifier
func (r *Rekognition) Classify(ctx context.Context, image []byte) (*Result, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	modOut, err := r.client.DetectModerationLabels(ctx, &rekognition.DetectModerationLabelsInput{
		Image:         &types.Image{Bytes: image},
		MinConfidence: aws.Float32(r.minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to detect moderation labels: %w", err)
	}

	labelOut, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(r.maxLabels),
		MinConfidence: aws.Float32(r.minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to detect labels: %w", err)
	}

	scores := make(map[string]float64, len(Categories))
	for _, ml := range modOut.ModerationLabels {
		category := moderationCategory(aws.ToString(ml.Name), aws.ToString(ml.ParentName))
		if category == "" {
			continue
		}
		if score := percent(ml.Confidence); score > scores[category] {
			scores[category] = score
		}
	}

	labels := make([]Label, 0, len(labelOut.Labels))
	for _, l := range labelOut.Labels {
		labels = append(labels, Label{Name: aws.ToString(l.Name), Score: percent(l.Confidence)})
	}

	return Evaluate(scores, labels), nil
}

func moderationCategory(name, parent string) string {
	for _, candidate := range []string{name, parent} {
		lower := strings.ToLower(candidate)
		if lower == "" {
			continue
		}
		for _, m := range moderationCategories {
			if strings.Contains(lower, m.keyword) {
				return m.category
			}
		}
	}
	return ""
}

func percent(v *float32) float64 {
	return float64(aws.ToFloat32(v)) / 100
}
