package services

import (
	"bytes"
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
)

const (
	certificateFolder = "classroom_certificates"
	uploadTimeout     = 30 * time.Second
)

// UploadSignature lets a browser upload straight to cloudinary.
type UploadSignature struct {
	Signature string
	Timestamp int64
	APIKey    string
	CloudName string
	Folder    string
}

// CloudinaryStore uploads certificates and signs direct browser uploads.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	secret string
	now    func() time.Time
}

func NewCloudinaryStore(cloudinaryURL string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, errors.Wrap(err, "configuring cloudinary")
	}
	parsedURL, err := url.Parse(cloudinaryURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing cloudinary url")
	}
	secret, _ := parsedURL.User.Password()
	return &CloudinaryStore{cld: cld, secret: secret, now: time.Now}, nil
}

func (s *CloudinaryStore) UploadCertificate(ctx context.Context, pdf []byte, publicID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(pdf), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       certificateFolder,
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", errors.New(res.Error.Message)
	}
	return res.SecureURL, nil
}

// SignUpload signs an upload into folder for the next few minutes.
func (s *CloudinaryStore) SignUpload(folder string) (UploadSignature, error) {
	params, err := api.StructToParams(uploader.UploadParams{Folder: folder})
	if err != nil {
		return UploadSignature{}, errors.Wrap(err, "preparing signature params")
	}
	timestamp := s.now().Unix()
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err := api.SignParameters(params, s.secret)
	if err != nil {
		return UploadSignature{}, errors.Wrap(err, "signing upload params")
	}
	return UploadSignature{
		Signature: signature,
		Timestamp: timestamp,
		APIKey:    s.cld.Config.Cloud.APIKey,
		CloudName: s.cld.Config.Cloud.CloudName,
		Folder:    folder,
	}, nil
}
