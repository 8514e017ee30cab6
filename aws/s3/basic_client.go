package s3

import (
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// maxDeleteKeys is the S3 limit on keys per DeleteObjects request.
const maxDeleteKeys = 1000

// NewBasicClient returns a client for bucket where every key is stored below prefix.
// Credentials are resolved by the default AWS SDK chain.
func NewBasicClient(bucket, region, prefix string) StagingClient {
	awsConfig := aws.NewConfig()
	awsConfig.Region = aws.String(region)
	sess := session.Must(session.NewSession(awsConfig))
	return NewBasicClientWithAPI(bucket, prefix, s3.New(sess))
}

// NewBasicClientWithAPI returns a client that uses the supplied S3 API, which may be a fake in tests.
func NewBasicClientWithAPI(bucket, prefix string, api s3iface.S3API) StagingClient {
	return &basicClient{
		bucket: bucket,
		prefix: prefix,
		api:    api,
	}
}

type basicClient struct {
	bucket string
	prefix string
	api    s3iface.S3API
}

func (s *basicClient) BufferPut(key string, dataBuf io.ReadSeeker) error {
	_, err := s.api.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
		Body:   dataBuf,
	})
	return err
}

func (s *basicClient) Delete(key string) error {
	_, err := s.api.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
	})
	return err
}

func (s *basicClient) DeleteKeys(keys []string) error {
	for len(keys) > 0 {
		n := len(keys)
		if n > maxDeleteKeys {
			n = maxDeleteKeys
		}
		objects := make([]*s3.ObjectIdentifier, n)
		for idx, k := range keys[:n] {
			objects[idx] = &s3.ObjectIdentifier{Key: aws.String(s.getKeyWithPrefix(k))}
		}
		resp, err := s.api.DeleteObjects(&s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return err
		}
		if len(resp.Errors) > 0 {
			e := resp.Errors[0]
			return fmt.Errorf("unable to delete %v: %v", aws.StringValue(e.Key), aws.StringValue(e.Message))
		}
		keys = keys[n:]
	}
	return nil
}

func (s *basicClient) getKeyWithPrefix(key string) string {
	if s.prefix != "" {
		return strings.TrimRight(s.prefix, "/") + "/" + key // ensure trailing slash after prefix.
	}
	return key
}
