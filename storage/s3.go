package storage

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
)

// S3Store uploads files to a single public S3 bucket.
type S3Store struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func NewS3StoreFromEnv() *S3Store {
	return &S3Store{
		Bucket:    os.Getenv("AWS_BUCKET"),
		Region:    os.Getenv("AWS_REGION"),
		AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
}

func (s *S3Store) newSession() (*session.Session, error) {
	if s.AccessKey == "" || s.SecretKey == "" || s.Region == "" || s.Bucket == "" {
		return nil, errors.New("AWS credentials, region or bucket not set in environment")
	}
	return session.NewSession(&aws.Config{
		Region:      aws.String(s.Region),
		Credentials: credentials.NewStaticCredentials(s.AccessKey, s.SecretKey, ""),
	})
}

func (s *S3Store) Store(file multipart.File, name string) (string, error) {
	sess, err := s.newSession()
	if err != nil {
		return "", errors.Wrap(err, "create AWS session")
	}
	svc := s3.New(sess)

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, file); err != nil {
		return "", errors.Wrap(err, "read file buffer")
	}

	_, err = svc.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(name),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return "", errors.Wrap(err, "upload file to S3")
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.Bucket, s.Region, name), nil
}

func (s *S3Store) Delete(url string) error {
	sess, err := s.newSession()
	if err != nil {
		return errors.Wrap(err, "create AWS session")
	}
	svc := s3.New(sess)

	key := strings.TrimPrefix(url, fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.Bucket, s.Region))
	_, err = svc.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return errors.Wrap(err, "delete file from S3")
}
