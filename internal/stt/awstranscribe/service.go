package awstranscribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"tubescribe/internal/logging"
	"tubescribe/internal/stt"
)

const defaultPollInterval = 10 * time.Second

// Config describes the Transcribe backend.
type Config struct {
	Region       string
	Bucket       string
	KeyPrefix    string
	PollInterval time.Duration
	KeepUploads  bool
}

// ObjectStore is the subset of the S3 API the backend uses.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// JobRunner is the subset of the Transcribe API the backend uses.
type JobRunner interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// Service is an stt.Backend backed by Amazon Transcribe.
type Service struct {
	cfg    Config
	store  ObjectStore
	jobs   JobRunner
	logger *slog.Logger
}

var _ stt.Backend = (*Service)(nil)

// New builds a Service using the default AWS credential chain.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Service, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("awstranscribe: bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("awstranscribe: load aws config: %w", err)
	}
	return NewWithClients(cfg, s3.NewFromConfig(awsCfg), transcribe.NewFromConfig(awsCfg), logger), nil
}

// NewWithClients builds a Service over explicit API clients.
func NewWithClients(cfg Config, store ObjectStore, jobs JobRunner, logger *slog.Logger) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Service{
		cfg:    cfg,
		store:  store,
		jobs:   jobs,
		logger: logging.NewComponentLogger(logger, "awstranscribe"),
	}
}

// Name identifies the backend.
func (s *Service) Name() string { return "aws" }

// Transcribe uploads audioPath, runs a transcription job, and returns its
// segments. A hint with a region subtag (for example "en-US") is passed as
// the job language; anything else enables automatic language identification.
func (s *Service) Transcribe(ctx context.Context, audioPath, languageHint string) (stt.Result, error) {
	logger := logging.WithContext(ctx, s.logger)

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jobName := "tubescribe-" + sanitizeJobName(base) + "-" + uuid.NewString()
	mediaKey := s.cfg.KeyPrefix + jobName + filepath.Ext(audioPath)
	outputKey := s.cfg.KeyPrefix + jobName + ".json"

	if err := s.upload(ctx, mediaKey, audioPath); err != nil {
		return stt.Result{}, fmt.Errorf("awstranscribe: upload audio: %w", err)
	}
	defer s.cleanup(logger, mediaKey, outputKey)

	if err := s.startJob(ctx, jobName, mediaKey, outputKey, languageHint); err != nil {
		return stt.Result{}, fmt.Errorf("awstranscribe: start job: %w", err)
	}
	logger.Info("transcription job started",
		logging.String("job", jobName),
		logging.String("bucket", s.cfg.Bucket),
	)

	job, err := s.waitForJob(ctx, logger, jobName)
	if err != nil {
		return stt.Result{}, err
	}

	doc, err := s.fetchResult(ctx, outputKey)
	if err != nil {
		return stt.Result{}, fmt.Errorf("awstranscribe: fetch result: %w", err)
	}

	language := string(job.LanguageCode)
	if language == "" {
		language = languageHint
	}
	return stt.Result{Segments: segmentItems(doc.Results.Items), Language: language}, nil
}

func (s *Service) upload(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	return err
}

func (s *Service) startJob(ctx context.Context, jobName, mediaKey, outputKey, hint string) error {
	mediaURI := fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, mediaKey)
	input := &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		Media:                &types.Media{MediaFileUri: aws.String(mediaURI)},
		MediaFormat:          mediaFormat(mediaKey),
		OutputBucketName:     aws.String(s.cfg.Bucket),
		OutputKey:            aws.String(outputKey),
	}
	if locale := localeHint(hint); locale != "" {
		input.LanguageCode = types.LanguageCode(locale)
	} else {
		input.IdentifyLanguage = aws.Bool(true)
	}
	_, err := s.jobs.StartTranscriptionJob(ctx, input)
	return err
}

func (s *Service) waitForJob(ctx context.Context, logger *slog.Logger, jobName string) (*types.TranscriptionJob, error) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			out, err := s.jobs.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
				TranscriptionJobName: aws.String(jobName),
			})
			if err != nil {
				return nil, fmt.Errorf("awstranscribe: job status: %w", err)
			}
			job := out.TranscriptionJob
			if job == nil {
				return nil, errors.New("awstranscribe: job status missing from response")
			}
			logger.Debug("transcription job status", logging.String("job", jobName), logging.String("status", string(job.TranscriptionJobStatus)))
			switch job.TranscriptionJobStatus {
			case types.TranscriptionJobStatusCompleted:
				return job, nil
			case types.TranscriptionJobStatusFailed:
				reason := aws.ToString(job.FailureReason)
				if reason == "" {
					reason = "no reason given"
				}
				return nil, fmt.Errorf("awstranscribe: job %s failed: %s", jobName, reason)
			}
		}
	}
}

func (s *Service) fetchResult(ctx context.Context, key string) (*resultDocument, error) {
	out, err := s.store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	var doc resultDocument
	if err := json.NewDecoder(out.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &doc, nil
}

func (s *Service) cleanup(logger *slog.Logger, keys ...string) {
	if s.cfg.KeepUploads {
		return
	}
	// The run context may already be cancelled; cleanup gets its own budget.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, key := range keys {
		_, err := s.store.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(key),
		})
		if err != nil && !isNotFoundError(err) {
			logging.WarnWithContext(logger, "transcription upload cleanup failed", "aws_cleanup_failed",
				logging.String("key", key),
				logging.Error(err),
				logging.String(logging.FieldImpact, "object left in bucket"),
				logging.String(logging.FieldErrorHint, "delete it manually or add a lifecycle rule"),
			)
		}
	}
}

func mediaFormat(key string) types.MediaFormat {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(key), ".")) {
	case "mp3":
		return types.MediaFormatMp3
	case "flac":
		return types.MediaFormatFlac
	case "ogg":
		return types.MediaFormatOgg
	case "m4a", "mp4":
		return types.MediaFormatMp4
	default:
		return types.MediaFormatWav
	}
}

// localeHint returns hint as a Transcribe locale ("en-US") when it carries a
// region subtag, or "" otherwise.
func localeHint(hint string) string {
	hint = strings.ReplaceAll(strings.TrimSpace(hint), "_", "-")
	parts := strings.Split(hint, "-")
	if len(parts) != 2 || len(parts[0]) < 2 || len(parts[1]) != 2 {
		return ""
	}
	return strings.ToLower(parts[0]) + "-" + strings.ToUpper(parts[1])
}

func sanitizeJobName(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// isNotFoundError determines if an error from AWS indicates a "not found" condition.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NotFoundException", "404":
			return true
		}
	}
	return strings.Contains(err.Error(), "NotFound:")
}
