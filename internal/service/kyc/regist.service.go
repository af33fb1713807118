package kyc

import (
	"context"
	"mime/multipart"
	"mobile-banking-core/internal/common/enum"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/rabbitmq"
	s3aws "mobile-banking-core/internal/pkg/storage/s3"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

type Service struct {
	ctx          context.Context
	backend      Backend
	archive      s3aws.Is3
	pool         *ants.Pool
	publisher    rabbitmq.IPublisher
	pollInterval time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

type IService interface {
	CreateSession() *types.Response
	GetSession(id string) *types.Response
	Capture(id string, asset enum.KycAssetEnum, file multipart.File, header *multipart.FileHeader) *types.Response
	CaptureURL(id string, asset enum.KycAssetEnum) *types.Response
	Retake(id string, asset enum.KycAssetEnum) *types.Response
	Next(id string) *types.Response
	Back(id string) *types.Response
	SetConsent(id string, req *ConsentRequest) *types.Response
	SetSelfieScores(id string, req *SelfieScoresRequest) *types.Response
	Submit(id string) *types.Response
	StartPolling(id string) *types.Response
	StopPolling(id string) *types.Response
	DeleteSession(id string) *types.Response
	Close()
}

type Options struct {
	Backend      Backend
	Archive      s3aws.Is3
	Pool         *ants.Pool
	Publisher    rabbitmq.IPublisher
	PollInterval time.Duration
}

func NewService(ctx context.Context, opts Options) IService {
	return &Service{
		ctx:          ctx,
		backend:      opts.Backend,
		archive:      opts.Archive,
		pool:         opts.Pool,
		publisher:    opts.Publisher,
		pollInterval: opts.PollInterval,
		sessions:     map[string]*Session{},
	}
}

type ConsentRequest struct {
	Accepted *bool `json:"accepted" binding:"required"`
}

type SelfieScoresRequest struct {
	LivenessScore  *float64 `json:"livenessScore" binding:"required,gte=0,lte=1"`
	FaceMatchScore *float64 `json:"faceMatchScore" binding:"required,gte=0,lte=1"`
}
