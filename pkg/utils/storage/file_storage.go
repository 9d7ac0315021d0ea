package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	imageutil "huddle_backend/pkg/utils/image"
	"huddle_backend/pkg/utils/validation"
)

var s3Client *s3.Client

func InitStorage() error {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "eu-central-1"
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return fmt.Errorf("unable to load SDK config: %v", err)
	}

	s3Client = s3.NewFromConfig(cfg)
	return nil
}

func bucketName() string {
	if b := os.Getenv("AWS_BUCKET_NAME"); b != "" {
		return b
	}
	return "huddle-images"
}

// UploadCommunityCover validates, re-encodes and uploads a community cover
// image, returning its public URL.
func UploadCommunityCover(file *multipart.FileHeader, communityID uint) (string, error) {
	if err := validation.ValidateImage(file); err != nil {
		return "", err
	}

	buf, contentType, err := imageutil.ProcessImage(file)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("communities/%d/cover-%s.webp", communityID, uuid.New().String())

	_, err = s3Client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(bucketName()),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("could not upload file: %v", err)
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucketName(), key), nil
}
