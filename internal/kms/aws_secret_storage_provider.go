package kms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/scrolluniversity/certificate-node/internal/log"
)

// AwsSecretStorageProviderConfig is a config for AwsSecretStorageProvider
// AccessKey and SecretKey are the AWS credentials
type AwsSecretStorageProviderConfig struct {
	AccessKey string
	SecretKey string
	Region    string
}

type awsSecretStorageProvider struct {
	secretManager *secretsmanager.Client
}

// NewAwsSecretStorageProvider creates a new instance of AwsSecretStorageProvider.
// The "local" region points the client to a localstack endpoint.
func NewAwsSecretStorageProvider(ctx context.Context, conf AwsSecretStorageProviderConfig) (StorageManager, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(conf.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(conf.AccessKey, conf.SecretKey, "")),
	)
	if err != nil {
		log.Error(ctx, "error loading AWS config", "err", err)
		return nil, err
	}

	var options []func(*secretsmanager.Options)
	if strings.ToLower(conf.Region) == "local" {
		options = append(options, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String("http://localhost:4566")
		})
	}

	return &awsSecretStorageProvider{
		secretManager: secretsmanager.NewFromConfig(cfg, options...),
	}, nil
}

func (a *awsSecretStorageProvider) SaveKeyMaterial(ctx context.Context, material map[string]string, id string) error {
	km := keyMaterial{
		KeyPath:    id,
		KeyType:    convertFromKeyType(KeyType(material[jsonKeyType])),
		PrivateKey: material[jsonKeyData],
	}
	secretValue, err := json.Marshal(km)
	if err != nil {
		return err
	}

	secretName := secretNameForKeyID(KeyID{Type: KeyType(material[jsonKeyType]), ID: id})
	log.Info(ctx, "saving key material", "secretName", secretName)
	_, err = a.secretManager.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(secretName),
		SecretString: aws.String(string(secretValue)),
		Tags: []types.Tag{
			{
				Key:   aws.String("keyType"),
				Value: aws.String(km.KeyType),
			},
		},
	})
	return err
}

func (a *awsSecretStorageProvider) searchPrivateKey(ctx context.Context, keyID KeyID) (string, error) {
	result, err := a.secretManager.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretNameForKeyID(keyID)),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", ErrKeyNotFound
		}
		log.Error(ctx, "error getting secret value", "err", err)
		return "", errors.New("error getting secret value from AWS")
	}

	var secretValue keyMaterial
	if err := json.Unmarshal([]byte(aws.ToString(result.SecretString)), &secretValue); err != nil {
		return "", err
	}
	return secretValue.PrivateKey, nil
}

// secretNameForKeyID returns the base64 encoded <keyType>/<keyPath> secret name
func secretNameForKeyID(keyID KeyID) string {
	return base64.StdEncoding.EncodeToString([]byte(string(keyID.Type) + "/" + keyID.ID))
}
