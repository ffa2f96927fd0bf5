// Package specsource fetches the operator-declared desired spec from the
// cluster configuration surface: a Kubernetes ConfigMap holding a
// users.yaml document, decoded into the controller's desired spec shape.
package specsource

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/corbaltcode/postgres-role-controller/internal/model"
	"github.com/corbaltcode/postgres-role-controller/internal/retry"
)

const usersYAMLKey = "users.yaml"

// documentBody is the decoded shape of the users.yaml field.
type documentBody struct {
	Users []model.UserRecord `yaml:"users"`
}

// Source fetches the desired spec from a named ConfigMap.
type Source struct {
	clientset     kubernetes.Interface
	namespace     string
	configMapName string
	defaultDB     string
	policy        retry.Policy
	log           *zap.SugaredLogger
}

// New constructs a Source reading the given namespace/configmap.
func New(clientset kubernetes.Interface, namespace, configMapName, defaultDB string, policy retry.Policy, log *zap.SugaredLogger) *Source {
	return &Source{
		clientset:     clientset,
		namespace:     namespace,
		configMapName: configMapName,
		defaultDB:     defaultDB,
		policy:        policy,
		log:           log,
	}
}

// FetchDesired reads and decodes the desired spec. On a definitive
// not-found response it returns a nil spec and an error wrapping
// model.ErrConfigMissing. Transient fetch errors are retried per
// the configured backoff policy; parse failures return an empty spec
// without retrying.
func (s *Source) FetchDesired(ctx context.Context) (model.DesiredSpec, error) {
	var cm *corev1.ConfigMap
	err := retry.Do(ctx, s.policy, isTransient, func(ctx context.Context) error {
		var getErr error
		cm, getErr = s.clientset.CoreV1().ConfigMaps(s.namespace).Get(ctx, s.configMapName, metav1.GetOptions{})
		return getErr
	})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("%s/%s: %w", s.namespace, s.configMapName, model.ErrConfigMissing)
		}
		return nil, fmt.Errorf("fetching configmap %s/%s: %w", s.namespace, s.configMapName, err)
	}

	raw, ok := cm.Data[usersYAMLKey]
	if !ok {
		s.log.Errorw("desired spec configmap missing users.yaml key", "namespace", s.namespace, "configmap", s.configMapName)
		return model.DesiredSpec{}, nil
	}

	var body documentBody
	if err := yaml.Unmarshal([]byte(raw), &body); err != nil {
		s.log.Errorw("desired spec malformed", "namespace", s.namespace, "configmap", s.configMapName, "error", err)
		return model.DesiredSpec{}, nil
	}

	spec := make(model.DesiredSpec, len(body.Users))
	for _, rec := range body.Users {
		if rec.Username == "" {
			s.log.Errorw("desired spec record missing username, skipping")
			continue
		}
		if !model.ValidUsername(rec.Username) {
			s.log.Errorw("desired spec record has invalid username, skipping", "username", rec.Username)
			continue
		}
		if model.IsDenied(rec.Username) {
			s.log.Errorw("desired spec record names a system role, skipping", "username", rec.Username)
			continue
		}
		if rec.Database == "" {
			rec.Database = s.defaultDB
		}
		if err := validatePrivileges(rec.Privileges); err != nil {
			s.log.Errorw("desired spec record has invalid privileges, skipping", "username", rec.Username, "error", err)
			continue
		}
		spec[rec.Username] = rec.Normalize()
	}
	return spec, nil
}

// validatePrivileges enforces the resolved object-key ambiguity: every
// privilege object must be a safe schema identifier and every keyword must
// be allow-listed, per model.ErrConfigMalformed.
func validatePrivileges(privs map[string][]string) error {
	for obj, kws := range privs {
		if !model.ValidPrivilegeObject(obj) {
			return fmt.Errorf("%q: %w", obj, model.ErrConfigMalformed)
		}
		for _, kw := range kws {
			if !model.ValidPrivilege(kw) {
				return fmt.Errorf("%s.%q: %w", obj, kw, model.ErrConfigMalformed)
			}
		}
	}
	return nil
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
