// Package evaluation holds the compliance result model and reports results
// back to AWS Config.
package evaluation

import (
	"github.com/aws/aws-sdk-go-v2/service/configservice/types"
)

// Annotation is the remediation outcome attached to an evaluation
type Annotation string

const (
	AnnotationAutoRemediated        Annotation = "AutoRemediated"
	AnnotationRemediationFailed     Annotation = "RemediationFailed"
	AnnotationNotApplicable         Annotation = "NotApplicable"
	AnnotationNoRemediationRequired Annotation = "No Remediation required"
)

// Notifiable reports whether the owner should be emailed about this outcome
func (a Annotation) Notifiable() bool {
	return a == AnnotationAutoRemediated || a == AnnotationRemediationFailed
}

// Result is the verdict for one invocation
type Result struct {
	Compliance types.ComplianceType
	Annotation Annotation
}

var (
	// NotApplicable is reported for deleted or out-of-scope resources
	NotApplicable = Result{Compliance: types.ComplianceTypeNotApplicable, Annotation: AnnotationNotApplicable}
	// AlreadyCompliant is reported when the queue already has a KMS key
	AlreadyCompliant = Result{Compliance: types.ComplianceTypeCompliant, Annotation: AnnotationNoRemediationRequired}
	// Remediated is reported after the KMS key was applied
	Remediated = Result{Compliance: types.ComplianceTypeCompliant, Annotation: AnnotationAutoRemediated}
	// RemediationFailed is reported when the queue is left unencrypted
	RemediationFailed = Result{Compliance: types.ComplianceTypeNonCompliant, Annotation: AnnotationRemediationFailed}
)
