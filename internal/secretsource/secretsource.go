// Package secretsource resolves per-user database passwords from
// Kubernetes Secrets, one secret per managed user.
package secretsource

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/corbaltcode/postgres-role-controller/internal/retry"
)

const passwordKey = "password"

// Source resolves per-user credentials on demand from Kubernetes Secrets.
type Source struct {
	clientset kubernetes.Interface
	namespace string
	policy    retry.Policy
	log       *zap.SugaredLogger
}

// New constructs a Source reading secrets from the given namespace.
func New(clientset kubernetes.Interface, namespace string, policy retry.Policy, log *zap.SugaredLogger) *Source {
	return &Source{clientset: clientset, namespace: namespace, policy: policy, log: log}
}

// secretName derives the Kubernetes secret name for a given username:
// underscores are rewritten to dashes since Secret names must be valid DNS
// subdomain segments.
func secretName(username string) string {
	slug := strings.ReplaceAll(username, "_", "-")
	return fmt.Sprintf("user-%s-secret", slug)
}

// PasswordFor resolves username's password. found is false (with a nil
// error) when the secret does not exist — a soft error the caller should
// log and count, not abort the cycle over.
func (s *Source) PasswordFor(ctx context.Context, username string) (password string, found bool, err error) {
	name := secretName(username)

	var secret *corev1.Secret
	fetchErr := retry.Do(ctx, s.policy, isTransient, func(ctx context.Context) error {
		obj, getErr := s.clientset.CoreV1().Secrets(s.namespace).Get(ctx, name, metav1.GetOptions{})
		if getErr != nil {
			return getErr
		}
		secret = obj
		return nil
	})
	if fetchErr != nil {
		if apierrors.IsNotFound(fetchErr) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("fetching secret %s/%s: %w", s.namespace, name, fetchErr)
	}

	raw, ok := secret.Data[passwordKey]
	if !ok {
		s.log.Errorw("secret missing password field", "secret", name)
		return "", false, nil
	}
	// client-go's typed Secret client already base64-decodes Data into
	// []byte; no further decoding step is needed here.
	return string(raw), true, nil
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if apierrors.IsNotFound(err) {
		return false
	}
	return apierrors.IsServerTimeout(err) || apierrors.IsTimeout(err) || apierrors.IsServiceUnavailable(err) || apierrors.IsTooManyRequests(err)
}
