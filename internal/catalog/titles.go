package catalog

import (
	"fmt"
	"strings"

	"github.com/chukul/daintree/internal/resource"
)

// nameTagPath finds the Name tag in an EC2-style tag list.
const nameTagPath = `Tags.#(Key=="Name").Value`

// NameTag returns the value of the Name tag, if any.
func NameTag(r resource.Resource) string {
	return r.Get(nameTagPath).String()
}

// NameTagTitle renders "<name> (<key>)" when the resource has a Name tag,
// otherwise the key alone.
func NameTagTitle(r resource.Resource) string {
	if name := NameTag(r); name != "" {
		return fmt.Sprintf("%s (%s)", name, r.Key)
	}
	return r.Key
}

// LastARNElement returns what follows the last colon of an ARN.
func LastARNElement(arn string) string {
	if arn == "" {
		return ""
	}
	pieces := strings.Split(arn, ":")
	return pieces[len(pieces)-1]
}

// QueueName returns the queue name from an SQS queue URL.
func QueueName(queueURL string) string {
	pieces := strings.Split(queueURL, "/")
	return pieces[len(pieces)-1]
}

func arnTitle(r resource.Resource) string { return LastARNElement(r.Key) }
func queueTitle(r resource.Resource) string { return QueueName(r.Key) }

// fieldTitle titles a resource by one of its attributes, falling back to
// the key.
func fieldTitle(path string) func(resource.Resource) string {
	return func(r resource.Resource) string {
		if v := r.Get(path).String(); v != "" {
			return v
		}
		return r.Key
	}
}

// afterSlash titles by the part of the key after the last slash, e.g. the
// family:revision of a task definition ARN.
func afterSlash(r resource.Resource) string {
	i := strings.LastIndex(r.Key, "/")
	return r.Key[i+1:]
}

func nameColumn() Column {
	return Column{Header: "NAME", Func: NameTag}
}
