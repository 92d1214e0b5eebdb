// Package preflight verifies that the configured AWS identity can run a scan
// before any log source is touched.
package preflight

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog/log"

	"github.com/CompassSecurity/logleek/pkg/cloudwatch/client"
	"github.com/CompassSecurity/logleek/pkg/scanerr"
)

// Reasons attached to the AuthError of a failed preflight.
const (
	ReasonNoRegion     = "no-region"
	ReasonMissing      = "missing"
	ReasonIncomplete   = "incomplete"
	ReasonExpired      = "expired"
	ReasonAccessDenied = "access-denied"
)

// Identity is the principal the scan runs as.
type Identity struct {
	Account string
	Arn     string
	UserID  string
	Region  string
}

// Check runs the credential and permission checks in order and stops at the first failure.
func Check(ctx context.Context, clients client.Provider) (Identity, error) {
	cfg := clients.Config()
	identity := Identity{Region: cfg.Region}

	if cfg.Region == "" {
		return identity, authError("region", ReasonNoRegion, errors.New("no AWS region configured, use --region, AWS_REGION or a profile"))
	}

	if err := checkCredentials(ctx, cfg); err != nil {
		return identity, err
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS credentials resolved")

	out, err := clients.STS().GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return identity, authError("GetCallerIdentity", classify(err), err)
	}
	identity.Account = aws.ToString(out.Account)
	identity.Arn = aws.ToString(out.Arn)
	identity.UserID = aws.ToString(out.UserId)

	_, err = clients.Logs(cfg.Region).DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{Limit: aws.Int32(1)})
	if err != nil {
		return identity, authError("DescribeLogGroups", classify(err), err)
	}

	log.Info().Str("account", identity.Account).Str("arn", identity.Arn).Str("region", identity.Region).Msg("AWS identity verified")
	return identity, nil
}

func checkCredentials(ctx context.Context, cfg aws.Config) error {
	if cfg.Credentials == nil {
		return authError("credentials", ReasonMissing, errors.New("no AWS credentials provider configured"))
	}

	creds, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		reason := ReasonMissing
		if client.IsExpiredToken(err) {
			reason = ReasonExpired
		}
		return authError("credentials", reason, err)
	}

	switch {
	case creds.AccessKeyID == "" && creds.SecretAccessKey == "":
		return authError("credentials", ReasonMissing, errors.New("no AWS credentials found"))
	case creds.AccessKeyID == "" || creds.SecretAccessKey == "":
		return authError("credentials", ReasonIncomplete, errors.New("access key id or secret access key is missing"))
	case creds.Expired():
		return authError("credentials", ReasonExpired, errors.New("AWS credentials expired at "+creds.Expires.String()))
	}
	return nil
}

func classify(err error) string {
	switch {
	case client.IsExpiredToken(err):
		return ReasonExpired
	case client.IsAccessDenied(err):
		return ReasonAccessDenied
	}
	switch client.ErrorCode(err) {
	case "InvalidClientTokenId", "SignatureDoesNotMatch", "IncompleteSignature":
		return ReasonAccessDenied
	}
	return client.Reason(err)
}

func authError(op, reason string, cause error) *scanerr.Error {
	return scanerr.New(scanerr.AuthError, "preflight", op, cause).WithReason(reason)
}
