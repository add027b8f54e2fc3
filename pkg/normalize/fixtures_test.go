package normalize

const computerXML = `<?xml version="1.0" encoding="UTF-8"?>
<computer>
  <general>
    <id>22</id>
    <name>FIN-MBP-022</name>
    <mac_address>8C:85:90:11:22:33</mac_address>
    <alt_mac_address/>
    <ip_address>10.1.2.22</ip_address>
    <serial_number>C02XK0AAJG5H</serial_number>
    <barcode_1/>
    <barcode_2/>
    <asset_tag>A0022</asset_tag>
    <remote_management>
      <managed>true</managed>
    </remote_management>
    <mdm_capable>false</mdm_capable>
    <last_contact_time>2018-05-10 13:45:02</last_contact_time>
    <initial_entry_date>2017-12-06</initial_entry_date>
  </general>
  <location>
    <username>jsmith</username>
    <real_name>Jane Smith</real_name>
    <email_address>jane.smith@example.com</email_address>
  </location>
  <hardware>
    <model>MacBook Pro (13-inch, 2017)</model>
    <model_identifier>MacBookPro14,1</model_identifier>
    <os_version>10.13.4</os_version>
    <os_build>17E202</os_build>
    <master_password_set>true</master_password_set>
    <active_directory_status>Not Bound</active_directory_status>
    <institutional_recovery_key>Not Present</institutional_recovery_key>
  </hardware>
  <certificates>
    <certificate>
      <common_name>JSS Built-in Certificate Authority</common_name>
      <identity>false</identity>
      <expires_utc>2027-12-06T07:32:50.000+0000</expires_utc>
      <expires_epoch>1828078370105</expires_epoch>
      <name/>
    </certificate>
    <certificate>
      <common_name>FIN-MBP-022</common_name>
      <identity>true</identity>
      <expires_utc>2019-12-06T07:32:50.000+0000</expires_utc>
      <expires_epoch>1575617570105</expires_epoch>
      <name>device identity</name>
    </certificate>
  </certificates>
  <software>
    <applications>
      <application><name>Chess.app</name><path>/Applications/Chess.app</path><version>3.15</version></application>
      <application><name>Self Service.app</name><path>/Applications/Self Service.app</path><version>10.4.1</version></application>
      <application><name>Microsoft Word.app</name><path>/Applications/Microsoft Word.app</path><version>16.13</version></application>
    </applications>
  </software>
  <extension_attributes>
    <extension_attribute><id>1</id><name>SIP status</name><type>String</type><value>enabled</value></extension_attribute>
    <extension_attribute><id>2</id><name>Internet Sharing Disabled</name><type>String</type><value>True</value></extension_attribute>
    <extension_attribute><id>3</id><name>Virus Running</name><type>String</type><value>1</value></extension_attribute>
    <extension_attribute><id>4</id><name>Open Tickets</name><type>Number</type><value>42</value></extension_attribute>
    <extension_attribute><id>5</id><name>Last Backup</name><type>Date</type><value>2018-05-09 22:00:00</value></extension_attribute>
    <extension_attribute><id>6</id><name>Seat</name><type>Integer</type><value/></extension_attribute>
  </extension_attributes>
  <groups_accounts>
    <computer_group_memberships>
      <group>All Managed Clients</group>
      <group>Finance</group>
    </computer_group_memberships>
    <local_accounts>
      <user>
        <name>jsmith</name>
        <realname>Jane Smith</realname>
        <uid>501</uid>
        <home>/Users/jsmith</home>
        <home_size_mb>20480</home_size_mb>
        <administrator>true</administrator>
        <file_vault_enabled>true</file_vault_enabled>
      </user>
      <user>
        <name>_mbsetupuser</name>
        <realname>Setup User</realname>
        <uid>248</uid>
        <home>/var/setup</home>
        <home_size_mb>0</home_size_mb>
        <administrator>false</administrator>
        <file_vault_enabled>false</file_vault_enabled>
      </user>
    </local_accounts>
  </groups_accounts>
  <configuration_profiles>
    <size>1</size>
    <configuration_profile>
      <id>7</id>
      <name>Wi-Fi</name>
      <uuid>8E2A9B7C-0000-4F00-9C1E-3C7B6A1D2E3F</uuid>
      <is_removable>false</is_removable>
    </configuration_profile>
  </configuration_profiles>
</computer>`

const policyXML = `<policy>
  <general>
    <id>12</id>
    <name>Install Office</name>
    <enabled>true</enabled>
    <trigger>EVENT</trigger>
    <trigger_checkin>true</trigger_checkin>
    <frequency>Once per computer</frequency>
    <category><id>3</id><name>Productivity</name></category>
  </general>
  <self_service><use_for_self_service>false</use_for_self_service></self_service>
  <package_configuration>
    <packages>
      <size>2</size>
      <package><id>101</id><name>Office.pkg</name><action>Install</action><fut>false</fut><feu>true</feu><autorun/></package>
      <package><id>102</id><name>Office Update.pkg</name><action>Cache</action><fut>true</fut><feu>false</feu><autorun/></package>
    </packages>
  </package_configuration>
  <scripts>
    <size>0</size>
    <script><id>9</id><name>stray.sh</name></script>
  </scripts>
</policy>`

const emptyPolicyXML = `<policy>
  <general><id>13</id><name>Nothing</name></general>
  <package_configuration>
    <packages>
      <size>0</size>
      <package><id>999</id><name>stray.pkg</name></package>
    </packages>
  </package_configuration>
  <scripts><size>0</size></scripts>
</policy>`

const groupXML = `<computer_group>
  <id>79</id>
  <name>Finance</name>
  <is_smart>true</is_smart>
  <site><id>-1</id><name>None</name></site>
  <criteria>
    <size>1</size>
    <criterion><name>Department</name><priority>0</priority><and_or>and</and_or><search_type>is</search_type><value>Finance</value></criterion>
  </criteria>
  <computers>
    <size>0</size>
  </computers>
</computer_group>`
