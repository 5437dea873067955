package storage

import (
	"context"
	"fmt"
	"time"

	"CloudDJ/config"
	"CloudDJ/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AudioStore MinIO音频镜像
// 已解析的音频上传到对象存储，语音/文件投递可以直接用预签名URL
type AudioStore struct {
	client *minio.Client
	bucket string
}

// NewAudioStore 初始化MinIO客户端并确保存储桶存在
func NewAudioStore(cfg *config.Config) (*AudioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("[NewAudioStore] 成功创建存储桶", logger.String("bucket", cfg.MinioBucket))
	}

	return &AudioStore{client: client, bucket: cfg.MinioBucket}, nil
}

// AudioObjectName 音频对象名
func (s *AudioStore) AudioObjectName(trackID string) string {
	return fmt.Sprintf("audio/%s.mp3", trackID)
}

// UploadAudio 上传本地音频文件
func (s *AudioStore) UploadAudio(ctx context.Context, objectName, localPath string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType: "audio/mpeg",
	})
	if err != nil {
		return fmt.Errorf("上传音频文件失败: %w", err)
	}
	logger.Debug("[UploadAudio] 音频上传完成", logger.String("object", objectName))
	return nil
}

// PresignedAudioURL 生成限时访问的音频下载地址
func (s *AudioStore) PresignedAudioURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成预签名地址失败: %w", err)
	}
	return u.String(), nil
}
