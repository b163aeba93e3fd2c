package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/readhabit/readhabit-web/internal/auth"
	"github.com/readhabit/readhabit-web/internal/config"
)

const (
	authFlowUserAuth  = types.AuthFlowType("USER_AUTH")
	challengeSelect   = types.ChallengeNameType("SELECT_CHALLENGE")
	challengeEmailOTP = types.ChallengeNameType("EMAIL_OTP")
)

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// CognitoAPI is the slice of the user-pool API the OTP flow needs.
type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, params *cognitoidentityprovider.RespondToAuthChallengeInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.RespondToAuthChallengeOutput, error)
}

// NewCognitoClient builds a user-pool client whose HTTP calls are bounded by
// cfg.Timeout.
func NewCognitoClient(ctx context.Context, cfg config.IdPConfig) (*cognitoidentityprovider.Client, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(cfg.Timeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return cognitoidentityprovider.NewFromConfig(awsCfg, func(o *cognitoidentityprovider.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Provider runs the choice-based USER_AUTH flow with the EMAIL_OTP challenge.
type Provider struct {
	client   CognitoAPI
	clientID string
}

func NewProvider(client CognitoAPI, clientID string) (*Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("cognito client is required")
	}
	if clientID == "" {
		return nil, fmt.Errorf("client id is required")
	}

	return &Provider{client: client, clientID: clientID}, nil
}

// NormalizeEmail is the canonical username form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Provider) Start(ctx context.Context, email string) (*auth.OTPHandshake, error) {
	email = NormalizeEmail(email)

	initiated, err := p.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: authFlowUserAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
		},
	})
	if err != nil {
		return nil, &auth.UpstreamError{Op: "initiate auth", Err: err}
	}

	selected, err := p.client.RespondToAuthChallenge(ctx, &cognitoidentityprovider.RespondToAuthChallengeInput{
		ClientId:      aws.String(p.clientID),
		ChallengeName: challengeSelect,
		Session:       initiated.Session,
		ChallengeResponses: map[string]string{
			"USERNAME": email,
			"ANSWER":   string(challengeEmailOTP),
		},
	})
	if err != nil {
		return nil, &auth.UpstreamError{Op: "select challenge", Err: err}
	}

	session := aws.ToString(selected.Session)
	if session == "" {
		return nil, &auth.UpstreamError{Op: "select challenge", Err: errors.New("no session returned")}
	}

	return &auth.OTPHandshake{Session: session, Email: email}, nil
}

func (p *Provider) Verify(ctx context.Context, handshake auth.OTPHandshake, code string) (*auth.TokenSet, error) {
	out, err := p.client.RespondToAuthChallenge(ctx, &cognitoidentityprovider.RespondToAuthChallengeInput{
		ClientId:      aws.String(p.clientID),
		ChallengeName: challengeEmailOTP,
		Session:       aws.String(handshake.Session),
		ChallengeResponses: map[string]string{
			"USERNAME":       handshake.Email,
			"EMAIL_OTP_CODE": code,
		},
	})
	if err != nil {
		if isRejected(err) {
			return nil, auth.ErrInvalidCode
		}
		return nil, &auth.UpstreamError{Op: "verify code", Err: err}
	}

	result := out.AuthenticationResult
	if result == nil {
		return nil, auth.ErrNoTokens
	}

	tokens := &auth.TokenSet{
		AccessToken:  aws.ToString(result.AccessToken),
		IDToken:      aws.ToString(result.IdToken),
		RefreshToken: aws.ToString(result.RefreshToken),
		ExpiresIn:    int64(result.ExpiresIn),
	}
	if err := tokens.Validate(); err != nil {
		return nil, err
	}

	return tokens, nil
}

// isRejected covers every answer that means "this code does not log anyone
// in", without telling apart an unknown user from a wrong code.
func isRejected(err error) bool {
	var codeMismatch *types.CodeMismatchException
	var expiredCode *types.ExpiredCodeException
	var notAuthorized *types.NotAuthorizedException
	var userNotFound *types.UserNotFoundException

	return errors.As(err, &codeMismatch) ||
		errors.As(err, &expiredCode) ||
		errors.As(err, &notAuthorized) ||
		errors.As(err, &userNotFound)
}
