// Package configevent decodes AWS Config rule invocations and decides what
// the remediation handler should do with them.
package configevent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/qri-io/jsonpointer"
	"github.com/tidwall/gjson"
)

// Message types delivered by AWS Config
const (
	MessageTypeChange          = "ConfigurationItemChangeNotification"
	MessageTypeOversizedChange = "OversizedConfigurationItemChangeNotification"
)

// Configuration item statuses that mean the resource no longer exists
const (
	StatusResourceDeleted            = "ResourceDeleted"
	StatusResourceDeletedNotRecorded = "ResourceDeletedNotRecorded"
)

// ResourceTypeQueue is the AWS Config resource type for SQS queues
const ResourceTypeQueue = "AWS::SQS::Queue"

// DefaultResultToken is sent when the invocation carries no result token
const DefaultResultToken = "no token"

// itemPointers maps each handled message type to the location of its
// configuration item inside the invoking event.
var itemPointers = map[string]string{
	MessageTypeChange:          "/configurationItem",
	MessageTypeOversizedChange: "/configurationItemSummary",
}

// Action is what the handler should do with an invocation
type Action int

const (
	// ActionIgnore ends the invocation without reporting
	ActionIgnore Action = iota
	// ActionNotApplicable reports NOT_APPLICABLE without touching the queue
	ActionNotApplicable
	// ActionEvaluate evaluates and, if needed, remediates the queue
	ActionEvaluate
)

func (a Action) String() string {
	switch a {
	case ActionIgnore:
		return "ignore"
	case ActionNotApplicable:
		return "not-applicable"
	case ActionEvaluate:
		return "evaluate"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ConfigurationItem holds the fields of a configuration item (or item
// summary) the handler uses
type ConfigurationItem struct {
	ResourceType string
	ResourceID   string
	ResourceName string
	Status       string
	CaptureTime  string
	AWSAccountID string
	AWSRegion    string
}

// CapturedAt parses the capture time
func (c ConfigurationItem) CapturedAt() (time.Time, error) {
	if c.CaptureTime == "" {
		return time.Time{}, fmt.Errorf("configuration item has no capture time")
	}
	t, err := time.Parse(time.RFC3339Nano, c.CaptureTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid capture time %q: %w", c.CaptureTime, err)
	}
	return t, nil
}

// Deleted reports whether the item describes a deleted resource
func (c ConfigurationItem) Deleted() bool {
	return c.Status == StatusResourceDeleted || c.Status == StatusResourceDeletedNotRecorded
}

// Plan is the decoded invocation
type Plan struct {
	Action      Action
	Reason      string
	MessageType string
	Item        ConfigurationItem
	ResultToken string

	// HasRuleParameters is true when the rule was configured with parameters
	// at all; KMSKeyID may still be empty in that case.
	HasRuleParameters bool
	KMSKeyID          string
}

// NewPlan classifies a Config rule invocation. It never fails: payloads the
// handler cannot use become ActionIgnore with a Reason.
func NewPlan(event events.ConfigEvent) Plan {
	plan := Plan{
		ResultToken: event.ResultToken,
	}
	if plan.ResultToken == "" {
		plan.ResultToken = DefaultResultToken
	}

	if event.RuleParameters != "" {
		plan.HasRuleParameters = true
		plan.KMSKeyID = gjson.Get(event.RuleParameters, "KmsKeyId").String()
	}

	var invoking any
	if err := json.Unmarshal([]byte(event.InvokingEvent), &invoking); err != nil {
		return plan.ignore(fmt.Sprintf("invoking event is not valid JSON: %v", err))
	}

	messageType, _ := lookup(invoking, "/messageType").(string)
	plan.MessageType = messageType

	pointer, ok := itemPointers[messageType]
	if !ok {
		return plan.ignore("only configuration item change notifications are evaluated")
	}

	if _, ok := lookup(invoking, pointer).(map[string]any); !ok {
		return plan.ignore(pointer + ": configuration item missing")
	}
	item := decodeItem(invoking, pointer)
	plan.Item = item

	switch {
	case item.ResourceID == "":
		return plan.ignore("configuration item has no resource id")
	case item.Deleted():
		return plan.notApplicable("resource deleted")
	case event.EventLeftScope:
		return plan.notApplicable("resource left rule scope")
	case item.ResourceType != ResourceTypeQueue:
		return plan.notApplicable(fmt.Sprintf("resource type %s is not evaluated", item.ResourceType))
	}

	plan.Action = ActionEvaluate
	return plan
}

func (p Plan) ignore(reason string) Plan {
	p.Action = ActionIgnore
	p.Reason = reason
	return p
}

func (p Plan) notApplicable(reason string) Plan {
	p.Action = ActionNotApplicable
	p.Reason = reason
	return p
}

// lookup evaluates a JSON Pointer against decoded JSON, returning nil for
// anything that cannot be resolved.
func lookup(doc any, path string) any {
	ptr, err := jsonpointer.Parse(path)
	if err != nil {
		return nil
	}
	value, err := ptr.Eval(doc)
	if err != nil {
		return nil
	}
	return value
}

// decodeItem reads the item fields under pointer. Missing or non-string
// fields are left empty.
func decodeItem(doc any, pointer string) ConfigurationItem {
	field := func(name string) string {
		value, _ := lookup(doc, pointer+"/"+name).(string)
		return value
	}
	return ConfigurationItem{
		ResourceType: field("resourceType"),
		ResourceID:   field("resourceId"),
		ResourceName: field("resourceName"),
		Status:       field("configurationItemStatus"),
		CaptureTime:  field("configurationItemCaptureTime"),
		AWSAccountID: field("awsAccountId"),
		AWSRegion:    field("awsRegion"),
	}
}
