package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Honestpuck/jss-tools/pkg/convert"
	"github.com/Honestpuck/jss-tools/pkg/record"
)

// Resource names as used in /JSSResource URLs.
const (
	ResourceComputers          = "computers"
	ResourcePolicies           = "policies"
	ResourcePackages           = "packages"
	ResourceScripts            = "scripts"
	ResourceComputerGroups     = "computergroups"
	ResourceMobileDevices      = "mobiledevices"
	ResourceCategories         = "categories"
	ResourceComputerManagement = "computermanagement"
	ResourceProfiles           = "osxconfigurationprofiles"
)

// ErrUnknownResource is returned by ForResource for unmapped resource names.
var ErrUnknownResource = errors.New("unknown resource")

// Resources lists every resource with a schema.
func Resources() []string {
	return []string{
		ResourceComputers,
		ResourcePolicies,
		ResourcePackages,
		ResourceScripts,
		ResourceComputerGroups,
		ResourceMobileDevices,
		ResourceCategories,
		ResourceComputerManagement,
		ResourceProfiles,
	}
}

// ForResource returns a fresh schema for a JSS resource name.
func ForResource(name string) (*Schema, error) {
	switch strings.ToLower(name) {
	case ResourceComputers:
		return Computer(), nil
	case ResourcePolicies:
		return Policy(), nil
	case ResourcePackages:
		return Package(), nil
	case ResourceScripts:
		return Script(), nil
	case ResourceComputerGroups:
		return ComputerGroup(), nil
	case ResourceMobileDevices:
		return MobileDevice(), nil
	case ResourceCategories:
		return Category(), nil
	case ResourceComputerManagement:
		return ComputerManagement(), nil
	case ResourceProfiles:
		return ConfigurationProfile(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownResource, name)
}

// Computer is the general inventory view of a computer record.
func Computer() *Schema {
	return &Schema{
		Name: "computer",
		Fields: FieldMap{
			{"general/id", "id"},
			{"general/name", "machine_name"},
			{"general/mac_address", "mac"},
			{"general/alt_mac_address", "mac2"},
			{"general/ip_address", "ip"},
			{"general/serial_number", "serial"},
			{"general/barcode_1", "bar1"},
			{"general/barcode_2", "bar2"},
			{"general/asset_tag", "tag"},
			{"general/remote_management/managed", "managed"},
			{"general/mdm_capable", "mdm"},
			{"general/last_contact_time", "last"},
			{"general/initial_entry_date", "initial"},
			{"hardware/model", "model"},
			{"hardware/model_identifier", "model_id"},
			{"hardware/os_version", "os"},
			{"hardware/os_build", "os_build"},
			{"hardware/master_password_set", "master"},
			{"hardware/active_directory_status", "AD"},
			{"hardware/institutional_recovery_key", "recovery"},
			{"location/username", "user"},
			{"location/real_name", "name"},
			{"location/email_address", "email"},
			{"configuration_profiles/size", "profiles_count"},
		},
		Conversions: ConversionMap{
			{"initial", convert.Date},
			{"last", convert.DateTime},
			{"managed", convert.Bool},
			{"master", convert.Bool},
			{"mdm", convert.Bool},
			{"profiles_count", convert.Int},
		},
		Collections: []Collection{
			{Name: "certificates", Path: "certificates/certificate", Schema: Certificate()},
			{Name: "profiles", Path: "configuration_profiles/configuration_profile", CountKey: "profiles_count", Schema: ConfigurationProfileSummary()},
			{Name: "users", Path: "groups_accounts/local_accounts/user", Schema: LocalAccount(), Exclude: systemAccount},
			{Name: "applications", Path: "software/applications/application", Schema: Application()},
		},
	}
}

// systemAccount matches the underscore-prefixed accounts macOS creates for
// its daemons.
func systemAccount(r *record.Record) bool {
	name, _ := r.FindText("name")
	return strings.HasPrefix(name, "_")
}

// Certificate is one entry of a computer's certificate list.
func Certificate() *Schema {
	return &Schema{
		Name: "certificate",
		Fields: FieldMap{
			{"common_name", "common"},
			{"identity", "identity"},
			{"expires_utc", "utc"},
			{"expires_epoch", "epoch"},
			{"name", "name"},
		},
		Conversions: ConversionMap{
			{"identity", convert.Bool},
			{"utc", convert.DateUTC},
			{"epoch", convert.Epoch},
		},
	}
}

// LocalAccount is one local user account on a computer.
func LocalAccount() *Schema {
	return &Schema{
		Name:   "user",
		Fields: simple("name", "realname", "uid", "home", "home_size_mb", "administrator", "file_vault_enabled"),
		Conversions: ConversionMap{
			{"administrator", convert.Bool},
			{"file_vault_enabled", convert.Bool},
		},
	}
}

// ConfigurationProfileSummary is a profile as listed inside a computer record.
func ConfigurationProfileSummary() *Schema {
	return &Schema{
		Name:   "computer_profile",
		Fields: simple("id", "name", "uuid", "is_removable"),
		Conversions: ConversionMap{
			{"is_removable", convert.Bool},
		},
	}
}

// Application is one installed application on a computer.
func Application() *Schema {
	return &Schema{
		Name:   "application",
		Fields: simple("name", "path", "version"),
	}
}

// Policy is a policy record with its packages and scripts.
func Policy() *Schema {
	return &Schema{
		Name: "policy",
		Fields: FieldMap{
			{"general/id", "id"},
			{"general/name", "name"},
			{"general/enabled", "enabled"},
			{"general/trigger", "trigger"},
			{"general/trigger_checkin", "checkin"},
			{"general/trigger_enrollment_complete", "enrollment"},
			{"general/trigger_login", "login"},
			{"general/trigger_logout", "logout"},
			{"general/trigger_network_state_change", "network"},
			{"general/trigger_startup", "startup"},
			{"general/trigger_other", "other"},
			{"general/frequency", "frequency"},
			{"general/category/id", "cat_id"},
			{"general/category/name", "cat_name"},
			{"general/site/id", "site_id"},
			{"general/site/name", "site_name"},
			{"self_service/use_for_self_service", "self_service"},
			{"package_configuration/packages/size", "pak_count"},
			{"scripts/size", "script_count"},
		},
		Conversions: ConversionMap{
			{"checkin", convert.Bool},
			{"enabled", convert.Bool},
			{"enrollment", convert.Bool},
			{"login", convert.Bool},
			{"logout", convert.Bool},
			{"network", convert.Bool},
			{"self_service", convert.Bool},
			{"startup", convert.Bool},
		},
		Collections: []Collection{
			{Name: "paks", Path: "package_configuration/packages/package", CountKey: "pak_count", Schema: PolicyPackage()},
			{Name: "scripts", Path: "scripts/script", CountKey: "script_count", Schema: PolicyScript()},
		},
	}
}

// PolicyPackage is one package inside a policy.
func PolicyPackage() *Schema {
	return &Schema{
		Name:   "policy_package",
		Fields: simple("id", "name", "action", "fut", "feu", "autorun"),
		Conversions: ConversionMap{
			{"fut", convert.Bool},
			{"feu", convert.Bool},
		},
	}
}

// PolicyScript is one script inside a policy.
func PolicyScript() *Schema {
	return &Schema{
		Name: "policy_script",
		Fields: simple("id", "name", "priority",
			"parameter4", "parameter5", "parameter6", "parameter7",
			"parameter8", "parameter9", "parameter10", "parameter11"),
	}
}

// Package is a package record.
func Package() *Schema {
	return &Schema{
		Name: "package",
		Fields: FieldMap{
			{"id", "id"},
			{"name", "name"},
			{"category", "category"},
			{"filename", "filename"},
			{"info", "info"},
			{"notes", "notes"},
			{"priority", "priority"},
			{"reboot_required", "reboot"},
			{"fill_user_template", "fill_user"},
			{"fill_existing_users", "fill"},
			{"boot_volume_required", "boot_req"},
			{"allow_uninstalled", "allow_uninst"},
			{"os_requirements", "os_req"},
			{"required_processor", "req_proc"},
			{"switch_with_package", "switch_with_pak"},
			{"install_if_reported_available", "install_if_avail"},
			{"reinstall_option", "reinstall"},
			{"triggering_files", "triggering"},
			{"send_notification", "send_not"},
		},
		Conversions: ConversionMap{
			{"reboot", convert.Bool},
			{"fill_user", convert.Bool},
			{"fill", convert.Bool},
			{"boot_req", convert.Bool},
			{"allow_uninst", convert.Bool},
			{"install_if_avail", convert.Bool},
			{"send_not", convert.Bool},
		},
	}
}

// Script is a script record.
func Script() *Schema {
	return &Schema{
		Name: "script",
		Fields: FieldMap{
			{"id", "id"},
			{"name", "name"},
			{"category", "category"},
			{"filename", "filename"},
			{"info", "info"},
			{"notes", "notes"},
			{"priority", "priority"},
			{"parameters/parameter4", "par4"},
			{"parameters/parameter5", "par5"},
			{"parameters/parameter6", "par6"},
			{"script_contents", "contents"},
		},
	}
}

// ComputerGroup is a smart or static group with its criteria and members.
func ComputerGroup() *Schema {
	return &Schema{
		Name: "computer_group",
		Fields: FieldMap{
			{"id", "id"},
			{"name", "name"},
			{"is_smart", "smart"},
			{"site/id", "site_id"},
			{"site/name", "site_name"},
			{"criteria/size", "crit_count"},
			{"computers/size", "computers_count"},
		},
		Conversions: ConversionMap{
			{"smart", convert.Bool},
		},
		Collections: []Collection{
			{Name: "criteria", Path: "criteria/criterion", CountKey: "crit_count", Schema: GroupCriterion()},
			{Name: "computers", Path: "computers/computer", CountKey: "computers_count", Schema: GroupComputer()},
		},
	}
}

// GroupCriterion is one membership rule of a smart group.
func GroupCriterion() *Schema {
	return &Schema{
		Name:   "criterion",
		Fields: simple("name", "priority", "and_or", "search_type", "value"),
	}
}

// GroupComputer is one member of a computer group.
func GroupComputer() *Schema {
	return &Schema{
		Name:   "group_computer",
		Fields: simple("id", "name", "mac_address", "alt_mac_address", "serial_number"),
	}
}

// MobileDevice is the general inventory view of a mobile device record.
func MobileDevice() *Schema {
	return &Schema{
		Name: "mobile_device",
		Fields: FieldMap{
			{"general/id", "id"},
			{"general/name", "machine_name"},
			{"general/serial_number", "serial"},
			{"general/udid", "udid"},
			{"general/wifi_mac_address", "mac"},
			{"general/ip_address", "ip"},
			{"general/model", "model"},
			{"general/model_identifier", "model_id"},
			{"general/os_version", "os"},
			{"general/os_build", "os_build"},
			{"general/phone_number", "phone"},
			{"general/managed", "managed"},
			{"general/supervised", "supervised"},
			{"general/last_inventory_update_epoch", "last"},
			{"location/username", "user"},
			{"location/real_name", "name"},
			{"location/email_address", "email"},
		},
		Conversions: ConversionMap{
			{"managed", convert.Bool},
			{"supervised", convert.Bool},
			{"last", convert.Epoch},
		},
	}
}

// Category is a category record.
func Category() *Schema {
	return &Schema{
		Name:   "category",
		Fields: simple("id", "name", "priority"),
		Conversions: ConversionMap{
			{"priority", convert.Int},
		},
	}
}

// ConfigurationProfile is a macOS configuration profile record.
func ConfigurationProfile() *Schema {
	return &Schema{
		Name: "configuration_profile",
		Fields: FieldMap{
			{"general/id", "id"},
			{"general/name", "name"},
			{"general/description", "description"},
			{"general/uuid", "uuid"},
			{"general/level", "level"},
			{"general/distribution_method", "distribution"},
			{"general/user_removable", "removable"},
			{"general/redeploy_on_update", "redeploy"},
			{"general/category/name", "cat_name"},
			{"general/site/name", "site_name"},
		},
		Conversions: ConversionMap{
			{"removable", convert.Bool},
		},
	}
}

// ComputerManagement is the management view of a computer: the policies,
// profiles and groups that apply to it.
func ComputerManagement() *Schema {
	return &Schema{
		Name: "computer_management",
		Fields: FieldMap{
			{"general/id", "id"},
			{"general/name", "name"},
			{"general/udid", "udid"},
			{"general/serial_number", "serial"},
			{"general/mac_address", "mac"},
		},
		Collections: []Collection{
			{Name: "policies", Path: "policies/policy", Schema: ManagementPolicy()},
			{Name: "config", Path: "os_x_configuration_profiles/profile", Schema: ManagementItem()},
			{Name: "smart", Path: "smart_groups/group", Schema: ManagementItem()},
			{Name: "static", Path: "static_groups/group", Schema: ManagementItem()},
		},
	}
}

// ManagementPolicy is a policy scoped to a computer.
func ManagementPolicy() *Schema {
	return &Schema{
		Name:   "management_policy",
		Fields: simple("id", "name", "triggers"),
	}
}

// ManagementItem is a named reference inside a management record.
func ManagementItem() *Schema {
	return &Schema{
		Name:   "management_item",
		Fields: simple("id", "name"),
	}
}
